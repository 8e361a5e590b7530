// Package medium locates the removable medium that carries the metadata
// artifact. The container manager only depends on the Locator interface;
// DirLocator serves fixed paths and tests, LabelLocator finds a mounted
// volume by its label.
package medium
