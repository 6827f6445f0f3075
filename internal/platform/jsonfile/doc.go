// Package jsonfile implements the store interfaces on top of flat JSON
// files. Each store loads its file once at open and fully rewrites it on
// every mutation, writing to a temp file and renaming so a crash mid-write
// cannot leave a truncated store behind.
package jsonfile
