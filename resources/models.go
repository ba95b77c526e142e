package resources

import "time"

// Resource collection names as they appear in backend and console paths.
const (
	TicketsName      = "tickets"
	SupportersName   = "supporters"
	DesignationsName = "designations"
	UsersName        = "users"
	MessagesName     = "messages"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type Ticket struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TicketStatus `json:"status,omitempty"`
	Priority    string       `json:"priority,omitempty"`
	Customer    string       `json:"customer,omitempty"`
	AssignedTo  *int         `json:"assigned_to,omitempty"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
}

type Supporter struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Designation *int   `json:"designation,omitempty"`
	Active      bool   `json:"is_active"`
}

type Designation struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type User struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role,omitempty"`
	Active     bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined,omitempty"`
}

// Message is one entry in a ticket conversation.
type Message struct {
	ID         int       `json:"id"`
	Ticket     int       `json:"ticket"`
	Sender     string    `json:"sender,omitempty"`
	Body       string    `json:"body"`
	Attachment string    `json:"attachment,omitempty"` // URL of the stored file
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
