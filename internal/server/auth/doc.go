// Package auth is the credential service: password hashing, access token
// issuing and verification, bearer header parsing and random secrets.
//
// Expected failures (wrong password, expired or tampered token) are returned
// as values (false, common.ErrInvalidToken) and never panic.
package auth
