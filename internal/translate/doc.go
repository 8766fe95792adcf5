// Package translate sends document chunks to a remote language model
// through pluggable providers
package translate
