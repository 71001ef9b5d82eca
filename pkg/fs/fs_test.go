package fs

import (
	"testing"

	"github.com/cyberrange/rangesim/pkg/model"
)

func TestFile_CorruptRepairRoundTrip(t *testing.T) {
	f := &File{FolderName: "reports", Name: "q1.csv"}

	if !f.CanCorrupt() {
		t.Fatal("a good file should be corruptible")
	}
	if !f.Corrupt() {
		t.Fatal("Corrupt() should succeed from GOOD")
	}
	if f.HealthStatus != model.FileCorrupt {
		t.Errorf("HealthStatus = %v, want CORRUPT", f.HealthStatus)
	}
	if f.Corrupt() {
		t.Error("Corrupt() should not succeed again from CORRUPT")
	}

	if !f.CanRepair() {
		t.Fatal("a corrupt file should be repairable")
	}
	if !f.Repair() {
		t.Fatal("Repair() should succeed from CORRUPT")
	}
	if f.HealthStatus != model.FileGood {
		t.Errorf("HealthStatus = %v, want GOOD", f.HealthStatus)
	}
	if f.Repair() {
		t.Error("Repair() should not succeed again from GOOD")
	}
}

func TestFile_DestroyIsUnrecoverableExceptByRestore(t *testing.T) {
	f := &File{FolderName: "reports", Name: "q1.csv"}
	if !f.Destroy() {
		t.Fatal("Destroy() should succeed on a live file")
	}
	if f.HealthStatus != model.FileDestroyed {
		t.Errorf("HealthStatus = %v, want DESTROYED", f.HealthStatus)
	}
	if f.CanCorrupt() || f.Corrupt() {
		t.Error("a destroyed file should not accept Corrupt()")
	}
	if f.CanRepair() || f.Repair() {
		t.Error("a destroyed file should not accept Repair()")
	}

	f.Restore()
	if f.HealthStatus != model.FileGood || f.Deleted {
		t.Errorf("after Restore(), got status=%v deleted=%v, want GOOD/false", f.HealthStatus, f.Deleted)
	}
}

func TestFile_DeletedFileRejectsEveryMutation(t *testing.T) {
	fo := NewFolder("reports")
	fo.AddFile("q1.csv")
	if !fo.RemoveFile("q1.csv") {
		t.Fatal("RemoveFile should succeed on a live file")
	}

	f, ok := fo.GetFile("q1.csv", false)
	if ok || f != nil {
		t.Fatal("a deleted file must not be reachable by name without includeDeleted")
	}
	f, ok = fo.GetFile("q1.csv", true)
	if !ok {
		t.Fatal("a deleted file must still be reachable via includeDeleted")
	}

	if f.CanCorrupt() || f.Corrupt() {
		t.Error("Corrupt() should reject a deleted file")
	}
	if f.CanRepair() || f.Repair() {
		t.Error("Repair() should reject a deleted file")
	}
	if f.CanDestroy() || f.Destroy() {
		t.Error("Destroy() should reject an already-deleted file")
	}
}

func TestFileSystem_ResetTickZeroesAccessBeforeTimestep(t *testing.T) {
	fsys := NewFileSystem()
	fo := fsys.CreateFolder("reports")
	f := fo.AddFile("q1.csv")

	// Simulate phase 3 of a tick: an action touches the file.
	f.Scan()
	if f.NumAccess == 0 {
		t.Fatal("Scan() should have incremented NumAccess")
	}
	touchedDuringTick := f.NumAccess

	// ApplyTimestep (phase 4) must not erase what the tick itself did.
	fsys.ApplyTimestep()
	if f.NumAccess != touchedDuringTick {
		t.Errorf("ApplyTimestep must not reset NumAccess; got %d, want %d", f.NumAccess, touchedDuringTick)
	}

	// ResetTick (phase 1 of the *next* tick) is what zeroes it.
	fsys.ResetTick()
	if f.NumAccess != 0 {
		t.Errorf("ResetTick should zero NumAccess, got %d", f.NumAccess)
	}
}

func TestFolder_ApplyTimestepAppliesScanAfterCountdown(t *testing.T) {
	fsys := NewFileSystem()
	fo := fsys.CreateFolder("reports")
	f := fo.AddFile("q1.csv")
	f.Corrupt()

	fo.ScanStart(2)
	if f.VisibleHealthStatus == model.FileCorrupt {
		t.Fatal("a scan with a nonzero duration should not apply immediately")
	}

	fo.ApplyTimestep() // countdown: 2 -> 1
	if f.VisibleHealthStatus == model.FileCorrupt {
		t.Fatal("scan should not have completed after only one tick of a 2-tick countdown")
	}
	fo.ApplyTimestep() // countdown: 1 -> 0, applies
	if f.VisibleHealthStatus != model.FileCorrupt {
		t.Errorf("VisibleHealthStatus = %v, want CORRUPT once the scan completes", f.VisibleHealthStatus)
	}
}

func TestFolder_RestoreRecoversDeletedAndDestroyedFiles(t *testing.T) {
	fo := NewFolder("reports")
	live := fo.AddFile("q1.csv")
	live.Destroy()
	deleted := fo.AddFile("q2.csv")
	fo.RemoveFile("q2.csv")

	fo.RestoreStart(0)

	if live.HealthStatus != model.FileGood {
		t.Errorf("live destroyed file: HealthStatus = %v, want GOOD", live.HealthStatus)
	}
	if _, ok := fo.GetFile("q2.csv", false); !ok {
		t.Error("a restored file should be reachable as a live file again")
	}
	if deleted.Deleted {
		t.Error("Restore should clear the Deleted flag")
	}
	if fo.HealthStatus != model.FileGood {
		t.Errorf("Folder.HealthStatus = %v, want GOOD after restore", fo.HealthStatus)
	}
}
