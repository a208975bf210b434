// Command imgvault packs image directories into self-describing containers
// and keeps a catalog of them.
//
// The four operations map to subcommands that also accept their menu
// numbers: insert (1), query (2), extract (3) and delete (4). Values missing
// from flags are prompted for on stdin.
package main
