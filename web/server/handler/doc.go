// Package handler implements the routes of the vault export server: static
// file downloads, HTML directory listings and streamed ZIP archives.
//
// Handlers write raw responses through response.Writer. Failures that happen
// before anything was written are returned as *types.Error values, which the
// connection handler turns into plain-text responses. Any other error aborts
// the connection, since a partial response can't be recovered.
package handler
