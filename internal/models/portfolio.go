package models

// Portfolio is a named collection of holdings belonging to one user.
// Deleting a portfolio removes its holdings and their alerts.
type Portfolio struct {
	Base
	UserID   string    `gorm:"type:uuid;index;not null" json:"userId"`
	Name     string    `gorm:"not null" json:"name"`
	Holdings []Holding `gorm:"foreignKey:PortfolioID" json:"holdings,omitempty"`
}
