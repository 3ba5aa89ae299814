package vpn

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dcampos/vpnkeeper/common"
)

const sampleProfile = `client
dev tun
proto udp
remote 185.10.20.30 443 udp
cipher AES-256-GCM
`

func TestProfileStore_WriteReadDelete(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	if err := store.Write("Frankfurt", []byte(sampleProfile)); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	// Stored under the canonical lowercase name with owner-only perms.
	info, err := os.Stat(filepath.Join(store.Dir(), "frankfurt.ovpn"))
	if err != nil {
		t.Fatalf("profile file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("profile permissions = %o, want 0600", perm)
	}

	data, err := store.Read("FRANKFURT")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if string(data) != sampleProfile {
		t.Errorf("Read() returned different bytes")
	}

	if err := store.Delete("frankfurt"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if store.Exists("frankfurt") {
		t.Error("profile should be gone after Delete")
	}
}

func TestProfileStore_WriteOverwrites(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	if err := store.Write("paris", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("paris", []byte("second")); err != nil {
		t.Fatal(err)
	}

	data, err := store.Read("paris")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("Read() = %q, want overwritten contents", data)
	}
}

func TestProfileStore_ReadMissing(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	_, err := store.Read("nowhere")
	if !errors.Is(err, common.ErrNotConfigured) {
		t.Errorf("Read(missing) = %v, want ErrNotConfigured", err)
	}
}

func TestProfileStore_DeleteMissing(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	err := store.Delete("nowhere")
	if !errors.Is(err, common.ErrNotConfigured) {
		t.Errorf("Delete(missing) = %v, want ErrNotConfigured", err)
	}
}

func TestProfileStore_List(t *testing.T) {
	dir := t.TempDir()
	store := NewProfileStore(dir)

	for _, name := range []string{"paris", "amsterdam", "frankfurt"} {
		if err := store.Write(name, []byte(sampleProfile)); err != nil {
			t.Fatal(err)
		}
	}
	// Files without the profile extension are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []string{"amsterdam", "frankfurt", "paris"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
}

func TestProfileStore_ListMissingDir(t *testing.T) {
	store := NewProfileStore(filepath.Join(t.TempDir(), "nope"))

	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}

func TestProfileStore_EndpointIPs(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	profiles := map[string]string{
		"amsterdam": "client\nremote 1.2.3.4 443 udp\n",
		"frankfurt": "client\nremote 5.6.7.8 443 udp\nremote 9.9.9.9 443 udp\n",
		// No remote line: silently omitted from the endpoint list.
		"broken": "client\ndev tun\n",
	}
	for name, content := range profiles {
		if err := store.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	ips, err := store.EndpointIPs()
	if err != nil {
		t.Fatalf("EndpointIPs() error: %v", err)
	}
	// One IP per server with a remote line, first remote only, in
	// List() order (amsterdam, broken, frankfurt).
	want := []string{"1.2.3.4", "5.6.7.8"}
	if !reflect.DeepEqual(ips, want) {
		t.Errorf("EndpointIPs() = %v, want %v", ips, want)
	}
}

func TestProfileStore_Endpoint(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	if err := store.Write("paris", []byte(sampleProfile)); err != nil {
		t.Fatal(err)
	}

	ip, ok, err := store.Endpoint("paris")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || ip != "185.10.20.30" {
		t.Errorf("Endpoint() = %q, %v; want 185.10.20.30, true", ip, ok)
	}
}
