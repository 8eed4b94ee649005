package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to pull provider transactions for a
// user and fold them into the ledger and aggregates. It carries only the
// credentials needed to run the pull; the worker does the rest.
type SyncRequestMessage struct {
	UserID      string    `json:"userId"`
	AccessToken string    `json:"accessToken"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewSyncRequestMessage(userID, accessToken string) *SyncRequestMessage {
	return &SyncRequestMessage{
		UserID:      userID,
		AccessToken: accessToken,
		RequestedAt: time.Now(),
	}
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
