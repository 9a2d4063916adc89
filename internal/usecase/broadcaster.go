package usecase

// Broadcaster is the live fan-out side of the connection registry as seen by
// the services. Delivery is best-effort, at-most-once per connected client;
// offline participants catch up through the history endpoint.
type Broadcaster interface {
	// BroadcastToRoom delivers the payload to every connection joined to the
	// room's broadcast group, skipping excludeUserID's connections.
	BroadcastToRoom(roomID string, payload []byte, excludeUserID string)

	// SendToUser delivers the payload to all of one user's connections.
	SendToUser(userID string, payload []byte)
}
