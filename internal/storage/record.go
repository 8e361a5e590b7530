package storage

import (
	"errors"
	"fmt"
	"time"
)

// FormatVersion is written into every new record
const FormatVersion = "1.0"

// DefaultMaxFiles is the default capacity of active file records
const DefaultMaxFiles = 100

var (
	ErrUnknownField = errors.New("unknown metadata field")
	ErrFieldType    = errors.New("wrong value type for metadata field")
	ErrNoRecord     = errors.New("no metadata record loaded")
)

// Record is the authoritative description of a container
type Record struct {
	CreationDate time.Time    `json:"creation_date"`
	LastModified time.Time    `json:"last_modified"`
	Version      string       `json:"version"`
	Salt         []byte       `json:"salt"`
	Identifier   string       `json:"identifier"`
	MaxFiles     int          `json:"max_files"`
	FileCount    int          `json:"file_count"`
	DeletedCount int          `json:"deleted_count"`
	FileTable    []FileRecord `json:"file_table"`
}

// Attributes holds the OS-level attributes copied from an imported file
type Attributes struct {
	Mode uint32 `json:"mode"`
	UID  int    `json:"uid"`
	GID  int    `json:"gid"`
}

// Encryption holds per-file key material parameters
type Encryption struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
}

// FileRecord describes one file stored in the container payload
type FileRecord struct {
	ID           string      `json:"id"`
	Filename     string      `json:"filename"`
	OriginalPath string      `json:"original_path"`
	Size         int64       `json:"size"`
	OriginalSize int64       `json:"original_size"`
	Created      time.Time   `json:"created"`
	Modified     time.Time   `json:"modified"`
	Accessed     time.Time   `json:"accessed"`
	ImportedDate time.Time   `json:"imported_date"`
	Encrypted    bool        `json:"encrypted"`
	Position     int64       `json:"position"`
	Deleted      bool        `json:"deleted"`
	DeletedDate  *time.Time  `json:"deleted_date,omitempty"`
	Attributes   Attributes  `json:"attributes"`
	Encryption   *Encryption `json:"encryption,omitempty"`
}

// NewRecord creates a new record with an empty file table
func NewRecord(maxFiles int) *Record {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	now := time.Now()
	return &Record{
		CreationDate: now,
		LastModified: now,
		Version:      FormatVersion,
		MaxFiles:     maxFiles,
		FileTable:    make([]FileRecord, 0),
	}
}

// FindFile finds a file record by id regardless of its deleted flag
func (r *Record) FindFile(id string) *FileRecord {
	for i := range r.FileTable {
		if r.FileTable[i].ID == id {
			return &r.FileTable[i]
		}
	}
	return nil
}

// FindFileState finds a file record by id whose deleted flag equals deleted
func (r *Record) FindFileState(id string, deleted bool) *FileRecord {
	f := r.FindFile(id)
	if f == nil || f.Deleted != deleted {
		return nil
	}
	return f
}

// AddFile appends a file record to the table
func (r *Record) AddFile(f FileRecord) {
	r.FileTable = append(r.FileTable, f)
	r.Recount()
}

// RemoveFile drops a file record and returns it
func (r *Record) RemoveFile(id string) (FileRecord, bool) {
	for i, f := range r.FileTable {
		if f.ID == id {
			r.FileTable = append(r.FileTable[:i], r.FileTable[i+1:]...)
			r.Recount()
			return f, true
		}
	}
	return FileRecord{}, false
}

// ActiveCount returns the number of records not marked deleted
func (r *Record) ActiveCount() int {
	n := 0
	for _, f := range r.FileTable {
		if !f.Deleted {
			n++
		}
	}
	return n
}

// Recount recomputes the active and deleted counters from the table
func (r *Record) Recount() {
	r.FileCount = r.ActiveCount()
	r.DeletedCount = len(r.FileTable) - r.FileCount
}

// PayloadSize returns the total stored size of all records
func (r *Record) PayloadSize() int64 {
	var total int64
	for _, f := range r.FileTable {
		total += f.Size
	}
	return total
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := *r
	c.Salt = append([]byte(nil), r.Salt...)
	c.FileTable = make([]FileRecord, len(r.FileTable))
	for i, f := range r.FileTable {
		c.FileTable[i] = f.Clone()
	}
	return &c
}

// Clone returns a deep copy of the file record
func (f FileRecord) Clone() FileRecord {
	c := f
	if f.DeletedDate != nil {
		d := *f.DeletedDate
		c.DeletedDate = &d
	}
	if f.Encryption != nil {
		c.Encryption = &Encryption{
			Salt:  append([]byte(nil), f.Encryption.Salt...),
			Nonce: append([]byte(nil), f.Encryption.Nonce...),
		}
	}
	return c
}

// SetField assigns one named field. The field set is fixed; on error the
// record is left unchanged.
func (r *Record) SetField(name string, value any) error {
	var ok bool
	switch name {
	case "creation_date", "last_modified":
		var t time.Time
		if t, ok = value.(time.Time); ok {
			if name == "creation_date" {
				r.CreationDate = t
			} else {
				r.LastModified = t
			}
		}
	case "version", "identifier":
		var v string
		if v, ok = value.(string); ok {
			if name == "version" {
				r.Version = v
			} else {
				r.Identifier = v
			}
		}
	case "salt":
		var salt []byte
		if salt, ok = value.([]byte); ok {
			r.Salt = append([]byte(nil), salt...)
		}
	case "max_files", "file_count", "deleted_count":
		var n int
		if n, ok = value.(int); ok {
			switch name {
			case "max_files":
				r.MaxFiles = n
			case "file_count":
				r.FileCount = n
			default:
				r.DeletedCount = n
			}
		}
	case "file_table":
		var table []FileRecord
		if table, ok = value.([]FileRecord); ok {
			r.FileTable = table
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if !ok {
		return fmt.Errorf("%w: %s (%T)", ErrFieldType, name, value)
	}
	return nil
}
