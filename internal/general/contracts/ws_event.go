package contracts

// WSSubscribeRequest is the only message clients send over the live feed.
type WSSubscribeRequest struct {
	Type   string `json:"type"` // "subscribe"
	RideID string `json:"rideId"`
}

// WSSubscribed acknowledges a subscription.
type WSSubscribed struct {
	Type   string `json:"type"` // "subscribed"
	RideID string `json:"rideId"`
}

// WSError reports a malformed or unsupported client message.
type WSError struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
