package session

import "time"

type createInput struct {
	Body CreateRequest
}

type CreateRequest struct {
	Credential string     `json:"credential" minLength:"1" doc:"Upstream API credential the session will sync with"`
	DeviceType string     `json:"deviceType,omitempty" example:"iOS"`
	DeviceOS   string     `json:"deviceOS,omitempty" example:"iOS 17.4"`
	AppVersion string     `json:"appVersion,omitempty" example:"1.94.0"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty" format:"date-time"`
}

type createOutput struct {
	Body CreateResponse
}

type CreateResponse struct {
	Token     string `json:"token" doc:"Bearer token; shown once, not recoverable"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type listInput struct {
}

type listOutput struct {
	Body []Response
}

type Response struct {
	ID               string     `json:"id"`
	DeviceType       string     `json:"deviceType"`
	DeviceOS         string     `json:"deviceOS"`
	AppVersion       string     `json:"appVersion"`
	PendingSyncReset bool       `json:"pendingSyncReset"`
	Current          bool       `json:"current"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

type deleteInput struct {
	ID string `path:"id"`
}

type deleteOutput struct {
}

type deleteAllInput struct {
}

type deleteAllOutput struct {
	Body DeleteAllResponse
}

type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}

type resetInput struct {
	ID string `path:"id"`
}

type resetOutput struct {
}
