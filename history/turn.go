package history

// Turn is one persisted message/response pair. Turns are never updated.
// Id is assigned by stores that keep their own record identity.
type Turn struct {
	Id        string `json:"id,omitempty" dynamodbav:"-"`
	UserId    string `json:"user_id" dynamodbav:"user_id"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
	Message   string `json:"message" dynamodbav:"message"`
	Response  string `json:"response" dynamodbav:"response"`
}
