// Package fs implements the per-node simulated file system: folders, the
// files within them, and the timed scan/reveal/restore operations that
// drive the health-status state machine (spec.md §4.7).
package fs

import (
	"fmt"

	"github.com/cyberrange/rangesim/pkg/model"
)

// File is one simulated file. Its true health status and the status
// visible to an observer (which only changes via scan/repair/restore,
// spec.md invariant 5) are tracked separately.
type File struct {
	FolderName string
	Name       string

	HealthStatus        model.FileHealthStatus
	VisibleHealthStatus model.FileHealthStatus

	Deleted        bool
	NumAccess      int
	RevealedToRed  bool
	PreviousHash   string
}

// Path returns "{folder}/{name}" (spec.md invariant 4).
func (f *File) Path() string {
	return fmt.Sprintf("%s/%s", f.FolderName, f.Name)
}

// CanCorrupt reports whether Corrupt would currently succeed.
func (f *File) CanCorrupt() bool {
	return !f.Deleted && f.HealthStatus == model.FileGood
}

// Corrupt transitions GOOD -> CORRUPT. No-op (failure) otherwise.
func (f *File) Corrupt() bool {
	if !f.CanCorrupt() {
		return false
	}
	f.HealthStatus = model.FileCorrupt
	f.NumAccess++
	return true
}

// CanRepair reports whether Repair would currently succeed.
func (f *File) CanRepair() bool {
	return !f.Deleted && f.HealthStatus == model.FileCorrupt
}

// Repair transitions CORRUPT -> GOOD.
func (f *File) Repair() bool {
	if !f.CanRepair() {
		return false
	}
	f.HealthStatus = model.FileGood
	f.NumAccess++
	if f.VisibleHealthStatus == model.FileCorrupt {
		f.VisibleHealthStatus = model.FileGood
	}
	return true
}

// CanDestroy reports whether Destroy would currently succeed.
func (f *File) CanDestroy() bool {
	return !f.Deleted
}

// Destroy sets the file to DESTROYED; only Restore recovers it.
func (f *File) Destroy() bool {
	if !f.CanDestroy() {
		return false
	}
	f.HealthStatus = model.FileDestroyed
	f.NumAccess++
	return true
}

// Scan copies the true health status to the visible one.
func (f *File) Scan() {
	f.VisibleHealthStatus = f.HealthStatus
	f.NumAccess++
}

// RevealToRed marks the file as visible to a red agent.
func (f *File) RevealToRed() {
	f.RevealedToRed = true
	f.NumAccess++
}

// Restore repairs a destroyed or corrupt file back to GOOD and clears its
// deleted flag. Used by Folder.applyRestore for every file, including
// deleted ones.
func (f *File) Restore() {
	f.HealthStatus = model.FileGood
	f.VisibleHealthStatus = model.FileGood
	f.Deleted = false
	f.NumAccess++
}

// resetAccess zeroes the per-tick access counter (spec.md §4.7).
func (f *File) resetAccess() {
	f.NumAccess = 0
}

// Folder holds live and deleted files plus the countdowns driving its
// timed operations (spec.md §4.7).
type Folder struct {
	Name string

	Files        map[string]*File
	DeletedFiles map[string]*File

	HealthStatus        model.FileHealthStatus
	VisibleHealthStatus model.FileHealthStatus
	RevealedToRed       bool

	ScanCountdown    int
	RedScanCountdown int
	RestoreCountdown int
}

// NewFolder returns an empty, healthy folder.
func NewFolder(name string) *Folder {
	return &Folder{
		Name:         name,
		Files:        make(map[string]*File),
		DeletedFiles: make(map[string]*File),
	}
}

// AddFile creates and stores a new live file.
func (fo *Folder) AddFile(name string) *File {
	f := &File{FolderName: fo.Name, Name: name}
	fo.Files[name] = f
	return f
}

// GetFile looks up a live file by name, optionally including deleted ones.
func (fo *Folder) GetFile(name string, includeDeleted bool) (*File, bool) {
	if f, ok := fo.Files[name]; ok {
		return f, true
	}
	if includeDeleted {
		if f, ok := fo.DeletedFiles[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// RemoveFile moves a live file into deleted_files (spec.md invariant 4).
func (fo *Folder) RemoveFile(name string) bool {
	f, ok := fo.Files[name]
	if !ok {
		return false
	}
	delete(fo.Files, name)
	f.Deleted = true
	f.NumAccess++
	fo.DeletedFiles[name] = f
	return true
}

// ScanStart begins a scan with the given duration (immediate if 0).
func (fo *Folder) ScanStart(duration int) {
	fo.ScanCountdown = duration
	if duration <= 0 {
		fo.applyScan()
	}
}

// RevealToRedStart begins revealing this folder to red with the given
// duration.
func (fo *Folder) RevealToRedStart(duration int) {
	fo.RedScanCountdown = duration
	if duration <= 0 {
		fo.applyRevealToRed()
	}
}

// RestoreStart begins a restore with the given duration.
func (fo *Folder) RestoreStart(duration int) {
	fo.RestoreCountdown = duration
	if duration <= 0 {
		fo.applyRestore()
	}
}

// ResetAccess zeroes every file's per-tick access counter, spec.md §4.1's
// pre-timestep phase (step 1) rather than apply_timestep (step 4) — the
// counter must read zero before any action in the tick is dispatched, not
// after, or a tick's own accesses never reach observation/reward.
func (fo *Folder) ResetAccess() {
	for _, f := range fo.Files {
		f.resetAccess()
	}
	for _, f := range fo.DeletedFiles {
		f.resetAccess()
	}
}

// ApplyTimestep decrements active countdowns and applies their effects at
// zero, in the order scan -> reveal-to-red -> restore.
func (fo *Folder) ApplyTimestep() {
	if fo.ScanCountdown > 0 {
		fo.ScanCountdown--
		if fo.ScanCountdown == 0 {
			fo.applyScan()
		}
	}
	if fo.RedScanCountdown > 0 {
		fo.RedScanCountdown--
		if fo.RedScanCountdown == 0 {
			fo.applyRevealToRed()
		}
	}
	if fo.RestoreCountdown > 0 {
		fo.RestoreCountdown--
		if fo.RestoreCountdown == 0 {
			fo.applyRestore()
		}
	}
}

func (fo *Folder) applyScan() {
	for _, f := range fo.Files {
		f.Scan()
		if f.VisibleHealthStatus == model.FileCorrupt {
			fo.VisibleHealthStatus = model.FileCorrupt
		}
	}
}

func (fo *Folder) applyRevealToRed() {
	fo.RevealedToRed = true
	for _, f := range fo.Files {
		f.RevealToRed()
	}
}

func (fo *Folder) applyRestore() {
	for name, f := range fo.DeletedFiles {
		f.Restore()
		fo.Files[name] = f
		delete(fo.DeletedFiles, name)
	}
	for _, f := range fo.Files {
		f.Restore()
	}
	fo.HealthStatus = model.FileGood
	fo.VisibleHealthStatus = model.FileGood
}

// FileSystem owns every folder on a node.
type FileSystem struct {
	Folders map[string]*Folder
}

// NewFileSystem returns an empty file system.
func NewFileSystem() *FileSystem {
	return &FileSystem{Folders: make(map[string]*Folder)}
}

// CreateFolder adds a new empty folder.
func (fsys *FileSystem) CreateFolder(name string) *Folder {
	fo := NewFolder(name)
	fsys.Folders[name] = fo
	return fo
}

// GetFolder looks up a folder by name.
func (fsys *FileSystem) GetFolder(name string) (*Folder, bool) {
	fo, ok := fsys.Folders[name]
	return fo, ok
}

// ResetTick zeroes every file's per-tick access counter (spec.md §4.1's
// pre-timestep phase).
func (fsys *FileSystem) ResetTick() {
	for _, fo := range fsys.Folders {
		fo.ResetAccess()
	}
}

// ApplyTimestep advances every folder's countdowns.
func (fsys *FileSystem) ApplyTimestep() {
	for _, fo := range fsys.Folders {
		fo.ApplyTimestep()
	}
}
