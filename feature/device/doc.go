// Package device exposes a media directory as the device side of the library.
//
// Every top level directory below the root is an album and every regular
// file inside it is an asset. Assets are identified by the base64 encoded
// SHA-1 of their content, the same checksum the server records on upload.
package device
