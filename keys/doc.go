// Package keys decodes and verifies the key and signature material that
// authorizes account operations.
//
// Two key roles exist. A CosmosAdr36 key is an account's identity key: it
// signs arbitrary data the way Cosmos wallets do, by wrapping the message in
// an ADR-36 sign document before hashing. A Secp256k1 key signs the sha256
// of the raw message and is used for the service's own wallet. Signatures
// are always 64 byte compact secp256k1 ECDSA (r || s) with a low S value.
package keys
