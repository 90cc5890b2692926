package model

// User represents an application user record.  Users have no
// relationships and no credentials; they are created, replaced
// wholesale and deleted by id.
//
// Fields:
//
//	ID       – backend-assigned identifier, serialized as "_id".
//	Username – unique login-style handle (3..25 characters).
//	Email    – contact address.
//	Address  – postal address.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}
