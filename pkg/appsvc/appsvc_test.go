package appsvc

import (
	"testing"

	"github.com/cyberrange/rangesim/pkg/auth"
	"github.com/cyberrange/rangesim/pkg/fs"
)

func TestDNSServer_ResolveRequiresRunning(t *testing.T) {
	d := NewDNSServer()
	d.AddRecord("example.range", "10.0.0.5")

	if _, ok := d.Resolve("example.range"); ok {
		t.Fatal("expected resolve to fail while service is stopped")
	}

	d.Service.Start()
	ip, ok := d.Resolve("EXAMPLE.range")
	if !ok || ip != "10.0.0.5" {
		t.Fatalf("got (%q, %v), want (10.0.0.5, true)", ip, ok)
	}

	if _, ok := d.Resolve("unknown.range"); ok {
		t.Fatal("expected resolve of unknown domain to fail")
	}
}

func TestHTTPServer_RoutesAndDefaults(t *testing.T) {
	h := NewHTTPServer()
	h.Service.Start()
	h.AddRoute("/status", 200)

	if code := h.Get("/status"); code != 200 {
		t.Fatalf("got %d, want 200", code)
	}
	if code := h.Get("/missing"); code != 404 {
		t.Fatalf("got %d, want 404", code)
	}

	h.Service.Stop()
	if code := h.Get("/status"); code != 503 {
		t.Fatalf("got %d, want 503 once stopped", code)
	}
}

func TestDatabaseServer_WriteQueryBackupRestore(t *testing.T) {
	db := NewDatabaseServer()
	db.Service.Start()

	if ok := db.Write("users", "1", "alice"); !ok {
		t.Fatal("write should succeed while running")
	}
	if v, ok := db.Query("users", "1"); !ok || v != "alice" {
		t.Fatalf("got (%q, %v), want (alice, true)", v, ok)
	}

	if ok := db.Backup("pre-attack"); !ok {
		t.Fatal("backup should succeed while running")
	}
	db.Write("users", "1", "corrupted")

	if ok := db.Restore("pre-attack"); !ok {
		t.Fatal("restore should succeed for a known backup name")
	}
	v, _ := db.Query("users", "1")
	if v != "alice" {
		t.Fatalf("restore did not roll back write: got %q", v)
	}

	if ok := db.Restore("does-not-exist"); ok {
		t.Fatal("restore of unknown backup should fail")
	}
}

func TestFTPServer_PutTransfersFileAcrossFileSystems(t *testing.T) {
	local := fs.NewFileSystem()
	remote := fs.NewFileSystem()

	srcFolder := local.CreateFolder("outbox")
	srcFolder.AddFile("report.txt")

	server := NewFTPServer(local)
	server.Service.Start()

	if ok := server.Put(remote, "outbox", "report.txt", "inbox"); !ok {
		t.Fatal("expected put to succeed")
	}

	dstFolder, ok := remote.GetFolder("inbox")
	if !ok {
		t.Fatal("expected inbox folder to be created on remote")
	}
	if _, ok := dstFolder.GetFile("report.txt", false); !ok {
		t.Fatal("expected report.txt to exist in remote inbox")
	}

	server.Service.Stop()
	if ok := server.Put(remote, "outbox", "report.txt", "inbox2"); ok {
		t.Fatal("expected put to fail once service is stopped")
	}
}

func TestTerminal_LoginRequiresValidCredentials(t *testing.T) {
	accounts := auth.NewManager()
	accounts.AddAccount("operator", "hunter2", auth.RoleOperator)

	term := NewTerminal(accounts, 10)
	term.Service.Start()

	if term.Login("operator", "wrong") {
		t.Fatal("expected login with wrong password to fail")
	}
	if !term.Login("operator", "hunter2") {
		t.Fatal("expected login with correct password to succeed")
	}
	if accounts.ActiveSessions() != 1 {
		t.Fatalf("got %d active sessions, want 1", accounts.ActiveSessions())
	}
	if !term.Logout("operator") {
		t.Fatal("expected logout to succeed for an active session")
	}
}
