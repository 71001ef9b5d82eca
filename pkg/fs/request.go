package fs

import (
	"strconv"

	"github.com/cyberrange/rangesim/pkg/request"
)

// parseTicks parses an optional leading positional argument as a countdown
// duration, defaulting to 0 (immediate) if absent or malformed.
func parseTicks(args []string) int {
	if len(args) == 0 {
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0
	}
	return n
}

// buildFileRequestManager wires the leaf handlers the request dispatch tree
// resolves at `file_system.file.<folder>.<file>.<verb>` (spec.md §4.1),
// generalizing the teacher's per-operation executor split
// (pkg/operations) into one manager per live File.
func buildFileRequestManager(f *File) *request.Manager {
	m := request.NewManager()
	m.AddHandler("scan", func(args []string) request.Response {
		f.Scan()
		return request.Succeed(nil)
	})
	m.AddProbe("scan", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("corrupt", func(args []string) request.Response {
		if !f.Corrupt() {
			return request.Fail("file is deleted or not in GOOD state")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("corrupt", func(args []string) (bool, string) {
		if !f.CanCorrupt() {
			return false, "file is deleted or not in GOOD state"
		}
		return true, ""
	})
	m.AddHandler("repair", func(args []string) request.Response {
		if !f.Repair() {
			return request.Fail("file is deleted or not in CORRUPT state")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("repair", func(args []string) (bool, string) {
		if !f.CanRepair() {
			return false, "file is deleted or not in CORRUPT state"
		}
		return true, ""
	})
	m.AddHandler("destroy", func(args []string) request.Response {
		if !f.Destroy() {
			return request.Fail("file is deleted")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("destroy", func(args []string) (bool, string) {
		if !f.CanDestroy() {
			return false, "file is deleted"
		}
		return true, ""
	})
	m.AddHandler("reveal_to_red", func(args []string) request.Response {
		f.RevealToRed()
		return request.Succeed(nil)
	})
	m.AddProbe("reveal_to_red", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("access", func(args []string) request.Response {
		if f.Deleted {
			return request.Fail("file is deleted")
		}
		f.NumAccess++
		return request.Succeed(nil)
	})
	m.AddProbe("access", func(args []string) (bool, string) {
		if f.Deleted {
			return false, "file is deleted"
		}
		return true, ""
	})
	return m
}

// buildFolderRequestManager wires `file_system.folder.<name>.<verb>`
// handlers plus the dynamic `file.<name>` resolver scoped to this folder's
// live files (the deleted-files map is reachable only by restore, matching
// spec.md invariant 7: a deleted file is unreachable by name except via a
// restore/include_deleted path).
func buildFolderRequestManager(fo *Folder) *request.Manager {
	m := request.NewManager()
	m.AddHandler("scan", func(args []string) request.Response {
		fo.ScanStart(parseTicks(args))
		return request.Succeed(nil)
	})
	m.AddProbe("scan", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("reveal_to_red", func(args []string) request.Response {
		fo.RevealToRedStart(parseTicks(args))
		return request.Succeed(nil)
	})
	m.AddProbe("reveal_to_red", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("restore", func(args []string) request.Response {
		fo.RestoreStart(parseTicks(args))
		return request.Succeed(nil)
	})
	m.AddProbe("restore", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("create_file", func(args []string) request.Response {
		if len(args) == 0 {
			return request.Fail("create_file requires a file name")
		}
		name := args[0]
		if _, exists := fo.GetFile(name, false); exists {
			return request.Fail("file already exists")
		}
		fo.AddFile(name)
		return request.Succeed(map[string]any{"name": name})
	})
	m.AddProbe("create_file", func(args []string) (bool, string) {
		if len(args) == 0 {
			return false, "create_file requires a file name"
		}
		if _, exists := fo.GetFile(args[0], false); exists {
			return false, "file already exists"
		}
		return true, ""
	})
	m.AddHandler("delete", func(args []string) request.Response {
		if len(args) == 0 {
			return request.Fail("delete requires a file name")
		}
		if !fo.RemoveFile(args[0]) {
			return request.Fail("file not found")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("delete", func(args []string) (bool, string) {
		if len(args) == 0 {
			return false, "delete requires a file name"
		}
		if _, exists := fo.GetFile(args[0], false); !exists {
			return false, "file not found"
		}
		return true, ""
	})
	m.SetDynamicChild(func(name string) (*request.Manager, bool) {
		f, ok := fo.GetFile(name, false)
		if !ok {
			return nil, false
		}
		return buildFileRequestManager(f), true
	})
	return m
}

// BuildRequestManager wires the file_system subtree: `create.folder.<name>`,
// `folder.<name>.<verb>`, and `file.<folder>.<file>.<verb>` (spec.md §4.1's
// example paths).
func (fsys *FileSystem) BuildRequestManager() *request.Manager {
	m := request.NewManager()

	create := request.NewManager()
	create.AddHandler("folder", func(args []string) request.Response {
		if len(args) == 0 {
			return request.Fail("create.folder requires a folder name")
		}
		name := args[0]
		if _, exists := fsys.GetFolder(name); exists {
			return request.Fail("folder already exists")
		}
		fsys.CreateFolder(name)
		return request.Succeed(map[string]any{"name": name})
	})
	create.AddProbe("folder", func(args []string) (bool, string) {
		if len(args) == 0 {
			return false, "create.folder requires a folder name"
		}
		if _, exists := fsys.GetFolder(args[0]); exists {
			return false, "folder already exists"
		}
		return true, ""
	})
	m.AddChild("create", create)

	folder := request.NewManager()
	folder.SetDynamicChild(func(name string) (*request.Manager, bool) {
		fo, ok := fsys.GetFolder(name)
		if !ok {
			return nil, false
		}
		return buildFolderRequestManager(fo), true
	})
	m.AddChild("folder", folder)

	file := request.NewManager()
	file.SetDynamicChild(func(folderName string) (*request.Manager, bool) {
		fo, ok := fsys.GetFolder(folderName)
		if !ok {
			return nil, false
		}
		wrapper := request.NewManager()
		wrapper.SetDynamicChild(func(fileName string) (*request.Manager, bool) {
			f, ok := fo.GetFile(fileName, false)
			if !ok {
				return nil, false
			}
			return buildFileRequestManager(f), true
		})
		return wrapper, true
	})
	m.AddChild("file", file)

	return m
}
