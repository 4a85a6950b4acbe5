// Package fileloader produces file bytes for the client from a local path, a
// URL or memory. Remote bodies can be kept in a bbolt cache so repeated runs
// work offline.
package fileloader
