package entities

// Links is the pair of presigned URLs handed to a client.
type Links struct {
	Up   string `json:"up"`
	Down string `json:"down"`
}
