// © 2013 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package user

// User is the bot's view of a chat participant for the current session.
type User struct {
	ID   string
	Name string

	Admin bool

	// Icon is a URL for the user's avatar, when the connector knows it
	Icon string
}
