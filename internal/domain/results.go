package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Write results keep the field names clients already read from the store
// driver's responses.

type InsertResult struct {
	Acknowledged bool                `json:"acknowledged,omitempty"`
	InsertedID   *primitive.ObjectID `json:"insertedId"`
	Message      string              `json:"message,omitempty"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

func Inserted(id primitive.ObjectID) InsertResult {
	return InsertResult{Acknowledged: true, InsertedID: &id}
}

// AlreadyExists is the no-insert sentinel for idempotent registration.
func AlreadyExists() InsertResult {
	return InsertResult{Message: "user already exist"}
}
