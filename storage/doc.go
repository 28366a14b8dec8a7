package storage

// storage contains the Storage interface the game uses to persist its state,
// along with the two interchangeable backends that implement it: Local, which
// writes to a synchronous Medium (BadgerDB on disk, memory, or the browser's
// localStorage), and Bridge, which delegates to a key/value object injected
// by a host shell. A Facade picks one of them once, at construction. The
// storage package deals only in opaque strings and doesn't know
// what the game stores in them.
