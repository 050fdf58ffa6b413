package usid

// Reference is an opaque handle to a written container object. The zarr
// backend uses the absolute store path of the object; other backends may
// use any stable identifier a later reader can resolve.
type Reference string

// ContainerWriter is the abstract hierarchical-container writer the
// assembler delegates to. Implementations write a whole tree in one
// pass, resolve datasets by name and attach reference-valued attributes
// after the fact.
type ContainerWriter interface {
	// WriteTree writes the tree rooted at root and returns the mapping
	// from dataset name to container reference for every dataset in the
	// tree.
	WriteTree(root *Group) (map[string]Reference, error)

	// AttachReferences records refs as named reference-valued attributes
	// on the object identified by main, so a reader can discover the
	// auxiliary datasets starting from the main dataset alone.
	AttachReferences(main Reference, refs map[string]Reference) error

	// Close finalizes the container. The writer is unusable afterwards.
	Close() error
}

// WriterOpener opens a ContainerWriter against a destination path.
// Opening must replace any existing container at the path; the write is
// full-overwrite, no merge, no backup.
type WriterOpener func(path string) (ContainerWriter, error)
