// Package models defines the core data structures shared by the bitbox
// client and server: key material records, remote file metadata, sync
// records, and the JSON bodies of the API.
package models

// KeyInfo is the durable representation of a user's identity and private
// key material. PrivateKey is either a PEM-encoded RSA private key
// (Encrypted == false) or a base64 blob encrypted under the user's
// personal key (Encrypted == true).
type KeyInfo struct {
	// Username is the account name registered with the server.
	Username string `json:"username"`
	// PublicKey is the PEM-encoded RSA public key.
	PublicKey string `json:"publicKey"`
	// PrivateKey holds the exported private key, possibly encrypted.
	PrivateKey string `json:"privateKey"`
	// Encrypted reports whether PrivateKey requires the personal key.
	Encrypted bool `json:"encrypted"`
}

// FileInfo describes one remote file as seen by the requesting user.
// EncryptedKey is the file's content key wrapped under the caller's
// public key, so its value differs per recipient.
type FileInfo struct {
	// FileID is the server-assigned identifier of the file.
	FileID string `json:"fileId"`
	// Name is the remote filename.
	Name string `json:"name"`
	// Owner is the username of the file's owner.
	Owner string `json:"owner"`
	// Bytes is the size of the stored ciphertext.
	Bytes int64 `json:"bytes"`
	// LastModified is a millisecond UNIX timestamp.
	LastModified int64 `json:"lastModified"`
	// EncryptedKey is the hex-encoded content key wrapped for the caller.
	EncryptedKey string `json:"encryptedKey"`
	// Hash is the SHA-256 hex digest of the plaintext content.
	Hash string `json:"hash"`
	// SharedWith lists usernames the file has been shared with.
	SharedWith []string `json:"sharedWith"`
}

// SyncRecord binds a local filesystem object to a remote file. Inode is
// the identity of the internal hardlink alias kept under the syncs
// directory; at most one live record exists per inode.
type SyncRecord struct {
	// SyncID is the local identifier of the record.
	SyncID int `json:"syncId"`
	// FileID is the remote file the local copy tracks.
	FileID string `json:"fileId"`
	// LastHash is the plaintext hash at the last successful sync.
	LastHash string `json:"lastHash"`
	// Inode is the inode number of the internal hardlink.
	Inode uint64 `json:"inode"`
}

// RecoveryKeyInfo is the server-escrowed private key blob fetched during
// account recovery. It decrypts only with the correct one-time code, and,
// if the key was password-protected at backup time, the personal key too.
type RecoveryKeyInfo struct {
	// Username is the account the escrow blob belongs to.
	Username string `json:"username"`
	// EncryptedPrivateKey is the OTC-encrypted key blob.
	EncryptedPrivateKey string `json:"encryptedPrivateKey"`
}
