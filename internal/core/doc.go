// Package core implements the container manager.
//
// A container is one host file holding a sealed image of a header followed
// by the stored file bytes. The file table lives only in the metadata record
// kept on the external medium. Every mutating operation decrypts the image
// into memory, edits it, seals it into a temp file, commits the metadata and
// then renames the temp file over the container, so the file on disk is
// never plaintext.
//
// Operations:
//   - Initialize/Load: create or open a container bound to this machine
//   - ImportFile/ExportFile: copy files in and out, with an optional per-file password
//   - DeleteSoft/Recover: toggle the trash flag
//   - DeletePermanent: cut the bytes out and shift later offsets
//   - ChangePassword: re-key metadata and container together
//   - Diff: compare a stored file with a local copy
package core
