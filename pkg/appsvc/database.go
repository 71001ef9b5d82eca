package appsvc

import (
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/software"
)

// DatabaseServer is a named-table key/value store standing in for the
// original simulator's sqlite-backed DatabaseService
// (original_source/.../services/database/database_service.py): rather
// than parse SQL, callers name a table and a row key directly, since no
// agent in spec.md's action space composes arbitrary SQL — it only needs
// to observe "can I still read/write my data" and "has it been wiped".
type DatabaseServer struct {
	Service *software.Service
	tables  map[string]map[string]string
	backups map[string]map[string]map[string]string
}

// NewDatabaseServer returns a stopped database service with no tables.
func NewDatabaseServer() *DatabaseServer {
	return &DatabaseServer{
		Service: defaultService("DatabaseService", []int{5432}),
		tables:  make(map[string]map[string]string),
		backups: make(map[string]map[string]map[string]string),
	}
}

func (d *DatabaseServer) running() bool {
	return d.Service.OperatingState == model.ServiceRunning
}

// Query reads value at table/key.
func (d *DatabaseServer) Query(table, key string) (string, bool) {
	if !d.running() {
		return "", false
	}
	rows, ok := d.tables[table]
	if !ok {
		return "", false
	}
	v, ok := rows[key]
	return v, ok
}

// Write sets table/key to value, creating the table if needed.
func (d *DatabaseServer) Write(table, key, value string) bool {
	if !d.running() {
		return false
	}
	rows, ok := d.tables[table]
	if !ok {
		rows = make(map[string]string)
		d.tables[table] = rows
	}
	rows[key] = value
	return true
}

// Backup snapshots every table under name, overwriting a prior backup of
// the same name (spec.md's file-system restore idiom, generalized to the
// database's own row store rather than fs.Folder).
func (d *DatabaseServer) Backup(name string) bool {
	if !d.running() {
		return false
	}
	snapshot := make(map[string]map[string]string, len(d.tables))
	for table, rows := range d.tables {
		copied := make(map[string]string, len(rows))
		for k, v := range rows {
			copied[k] = v
		}
		snapshot[table] = copied
	}
	d.backups[name] = snapshot
	return true
}

// Restore replaces the live tables with the contents of a prior backup.
func (d *DatabaseServer) Restore(name string) bool {
	snapshot, ok := d.backups[name]
	if !ok {
		return false
	}
	d.tables = snapshot
	return true
}

// BuildRequestManager wires `service.DatabaseService.app.{query,write,
// backup,restore}`.
func (d *DatabaseServer) BuildRequestManager() *request.Manager {
	m := request.NewManager()
	m.AddHandler("query", func(args []string) request.Response {
		if len(args) < 2 {
			return request.Fail("query requires a table and key argument")
		}
		v, ok := d.Query(args[0], args[1])
		if !ok {
			return request.Fail("no such row, table, or service not running")
		}
		return request.Succeed(map[string]any{"value": v})
	})
	m.AddHandler("write", func(args []string) request.Response {
		if len(args) < 3 {
			return request.Fail("write requires a table, key, and value argument")
		}
		if !d.Write(args[0], args[1], args[2]) {
			return request.Fail("service not running")
		}
		return request.Succeed(nil)
	})
	m.AddHandler("backup", func(args []string) request.Response {
		if len(args) < 1 {
			return request.Fail("backup requires a name argument")
		}
		if !d.Backup(args[0]) {
			return request.Fail("service not running")
		}
		return request.Succeed(nil)
	})
	m.AddHandler("restore", func(args []string) request.Response {
		if len(args) < 1 {
			return request.Fail("restore requires a name argument")
		}
		if !d.Restore(args[0]) {
			return request.Fail("no such backup")
		}
		return request.Succeed(nil)
	})
	return m
}

// TableCount reports how many tables currently exist.
func (d *DatabaseServer) TableCount() int {
	return len(d.tables)
}
