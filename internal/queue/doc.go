// Package queue persists deferred print requests in SQLite.
//
// Every mutation is written through immediately so a crash between accepting
// a file and recording the request cannot silently drop it. Pending requests
// survive restarts in submission order.
package queue
