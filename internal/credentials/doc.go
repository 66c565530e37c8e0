// Package credentials implements the password digest and the random strings
// used as salts and bearer tokens.
//
// The digest is a single SHA-256 pass over password+salt, base64 encoded.
// It is kept for compatibility with existing account records and is weaker
// than a work-factor password hash such as bcrypt or argon2.
package credentials
