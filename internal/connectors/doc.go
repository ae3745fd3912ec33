// Package connectors groups the readers that fetch dataset sources for
// import. Each subpackage knows one kind of source.
package connectors
