package domain

// Entry types reported by the contents API.
const (
	EntryFile      = "file"
	EntryDir       = "dir"
	EntrySymlink   = "symlink"
	EntrySubmodule = "submodule"
)

// Entry is one item of a remote directory listing.
type Entry struct {
	Name string
	Path string
	Type string
	Size int
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Type == EntryDir }

// IsFile reports whether the entry is a regular file.
func (e Entry) IsFile() bool { return e.Type == EntryFile }

// RepoInfo holds repository metadata resolved before a crawl.
type RepoInfo struct {
	NameWithOwner   string
	DefaultBranch   string
	PrimaryLanguage string
}

// Annotation is a CI check-run annotation attached to a file location.
type Annotation struct {
	CheckName string
	Path      string
	StartLine int
	Column    int
	Level     string
	Title     string
	Message   string
}
