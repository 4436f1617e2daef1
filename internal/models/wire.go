package models

// Request and response bodies of the HTTP API. Field names follow the
// wire contract, so both the client and the reference server marshal
// against the same shapes.

// UserInfoRequest asks for a user's public key.
type UserInfoRequest struct {
	Username string `json:"username"`
}

// UserInfoResponse carries the requested user's public key.
type UserInfoResponse struct {
	PublicKey string `json:"publicKey"`
}

// RegisterUserRequest registers a username with its public key.
type RegisterUserRequest struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
	Version   string `json:"version"`
}

// ChallengeRequest asks the server for a login challenge.
type ChallengeRequest struct {
	Username string `json:"username"`
}

// LoginRequest submits the decrypted challenge answer.
type LoginRequest struct {
	Username          string `json:"username"`
	ChallengeResponse string `json:"challengeResponse"`
	Version           string `json:"version"`
}

// PrepareStoreRequest reserves a storage slot for a new file.
type PrepareStoreRequest struct {
	Filename             string `json:"filename"`
	Bytes                int64  `json:"bytes"`
	Hash                 string `json:"hash"`
	PersonalEncryptedKey string `json:"personalEncryptedKey"`
}

// PrepareStoreResponse returns the new file's identity and upload URL.
type PrepareStoreResponse struct {
	FileID    string `json:"fileId"`
	UploadURL string `json:"uploadURL"`
}

// PrepareUpdateRequest reserves an upload slot for new content of an
// existing file.
type PrepareUpdateRequest struct {
	FileID string `json:"fileId"`
	Bytes  int64  `json:"bytes"`
	Hash   string `json:"hash"`
}

// PrepareUpdateResponse returns the upload URL for the pending update.
type PrepareUpdateResponse struct {
	UploadURL string `json:"uploadURL"`
}

// StoreRequest finalizes an upload.
type StoreRequest struct {
	FileID string `json:"fileId"`
}

// SaveRequest asks for a download URL and the caller-wrapped key.
type SaveRequest struct {
	FileID string `json:"fileId"`
}

// SaveResponse carries everything needed to fetch and decrypt a file.
type SaveResponse struct {
	DownloadURL  string `json:"downloadURL"`
	EncryptedKey string `json:"encryptedKey"`
	Hash         string `json:"hash"`
}

// ShareRequest grants recipients access by submitting the content key
// re-wrapped under each recipient's public key.
type ShareRequest struct {
	FileID                 string            `json:"fileId"`
	RecipientEncryptedKeys map[string]string `json:"recipientEncryptedKeys"`
}

// DeleteRequest removes a remote file.
type DeleteRequest struct {
	FileID string `json:"fileId"`
}

// FileInfoRequest resolves file metadata by name (optionally qualified
// by owner) or by file ID.
type FileInfoRequest struct {
	Filename string `json:"filename,omitempty"`
	Owner    string `json:"owner,omitempty"`
	FileID   string `json:"fileId,omitempty"`
}

// PushEncryptedKeyRequest escrows an OTC-encrypted private key blob.
type PushEncryptedKeyRequest struct {
	EncryptedPrivateKey string `json:"encryptedPrivateKey"`
	Version             string `json:"version"`
}

// RecoverKeysRequest fetches the escrow blob during recovery. OTC may be
// empty when the caller only wants to check that an escrow exists.
type RecoverKeysRequest struct {
	Username string `json:"username"`
	OTC      string `json:"otc,omitempty"`
	Version  string `json:"version"`
}
