package appsvc

import (
	"strings"

	"github.com/cyberrange/rangesim/pkg/fs"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/software"
)

// FTPServer transfers file entries between this node's file system and a
// peer's, grounded on the original simulator's FTPServer/FTPClient pair
// (original_source/.../services/ftp/ftp_server.py,ftp_client.py). Since
// fs.File carries no byte content, a transfer here means "the destination
// folder gains an entry with the source's name and health status" rather
// than copying bytes — the property an RL agent actually observes (did
// the file arrive, is it corrupt) is preserved without simulating FTP's
// wire format.
type FTPServer struct {
	Service *software.Service
	Local   *fs.FileSystem
}

// NewFTPServer returns a stopped FTP service bound to local, the file
// system of the node it is installed on.
func NewFTPServer(local *fs.FileSystem) *FTPServer {
	return &FTPServer{
		Service: defaultService("FTPServer", []int{21}),
		Local:   local,
	}
}

func (f *FTPServer) running() bool {
	return f.Service.OperatingState == model.ServiceRunning
}

// Get copies srcFolder/srcFile from remote (the peer's file system, e.g. a
// client's download target) into this server's dstFolder, preserving
// health status and reveal-to-red state, and bumping the source's access
// counter (spec.md's "every read touches NumAccess" convention).
func (f *FTPServer) Get(remote *fs.FileSystem, srcFolder, srcFile, dstFolder string) bool {
	if !f.running() {
		return false
	}
	folder, ok := remote.GetFolder(srcFolder)
	if !ok {
		return false
	}
	file, ok := folder.GetFile(srcFile, false)
	if !ok {
		return false
	}
	file.NumAccess++

	dst, ok := f.Local.GetFolder(dstFolder)
	if !ok {
		dst = f.Local.CreateFolder(dstFolder)
	}
	copied := dst.AddFile(file.Name)
	copied.HealthStatus = file.HealthStatus
	copied.VisibleHealthStatus = file.VisibleHealthStatus
	copied.RevealedToRed = file.RevealedToRed
	return true
}

// Put is Get in reverse: it copies srcFolder/srcFile from this server's
// local file system into remote's dstFolder.
func (f *FTPServer) Put(remote *fs.FileSystem, srcFolder, srcFile, dstFolder string) bool {
	if !f.running() {
		return false
	}
	folder, ok := f.Local.GetFolder(srcFolder)
	if !ok {
		return false
	}
	file, ok := folder.GetFile(srcFile, false)
	if !ok {
		return false
	}
	file.NumAccess++

	dst, ok := remote.GetFolder(dstFolder)
	if !ok {
		dst = remote.CreateFolder(dstFolder)
	}
	copied := dst.AddFile(file.Name)
	copied.HealthStatus = file.HealthStatus
	copied.VisibleHealthStatus = file.VisibleHealthStatus
	copied.RevealedToRed = file.RevealedToRed
	return true
}

// BuildRequestManager wires `service.FTPServer.app.{get,put}` against a
// peer resolved by the caller (see pkg/network/request.go's ftp wiring,
// which supplies the remote node's file system by hostname).
func (f *FTPServer) BuildRequestManager(resolveRemote func(hostname string) (*fs.FileSystem, bool)) *request.Manager {
	m := request.NewManager()
	m.AddHandler("get", func(args []string) request.Response {
		if len(args) < 4 {
			return request.Fail("get requires remote_host, src_folder, src_file, dst_folder")
		}
		remote, ok := resolveRemote(args[0])
		if !ok {
			return request.Fail("unknown remote host")
		}
		// A dotted file name arrives split across segments; rejoin
		// everything between src_folder and the final dst_folder.
		srcFile := strings.Join(args[2:len(args)-1], ".")
		if !f.Get(remote, args[1], srcFile, args[len(args)-1]) {
			return request.Fail("transfer failed: file missing or service not running")
		}
		return request.Succeed(nil)
	})
	m.AddHandler("put", func(args []string) request.Response {
		if len(args) < 4 {
			return request.Fail("put requires remote_host, src_folder, src_file, dst_folder")
		}
		remote, ok := resolveRemote(args[0])
		if !ok {
			return request.Fail("unknown remote host")
		}
		srcFile := strings.Join(args[2:len(args)-1], ".")
		if !f.Put(remote, args[1], srcFile, args[len(args)-1]) {
			return request.Fail("transfer failed: file missing or service not running")
		}
		return request.Succeed(nil)
	})
	return m
}
