// Package usid converts raw multidimensional instrument measurements into
// self-describing hierarchical containers. Every measurement axis, spatial
// ("position") or non-spatial ("spectroscopic"), is represented by a paired
// index/value coordinate dataset, so generic downstream tools can slice and
// interpret the data without instrument-specific logic.
//
// The package covers coordinate-matrix construction (MakeIndexMatrix),
// index/value dataset assembly (BuildIndValDatasets), per-axis region
// slicing (PositionSlices, SpectroscopicSlices), the in-memory container
// tree (Group, Dataset), the standardized write pipeline (SimpleWrite) and
// the translator contract (Translator) that instrument-specific decoders
// implement. The physical container is a zarr v2 store; the write path is
// pluggable through the ContainerWriter interface.
package usid
