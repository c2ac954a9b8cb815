// internal/models/application.go
package models

import (
	"encoding/json"
	"time"

	"combinator-portal/internal/status"
)

// Industry values accepted by the application form.
type Industry string

const (
	IndustryFintech    Industry = "fintech"
	IndustryHealthtech Industry = "healthtech"
	IndustryEdtech     Industry = "edtech"
	IndustryEcommerce  Industry = "ecommerce"
	IndustrySaaS       Industry = "saas"
	IndustryAI         Industry = "ai"
	IndustryCleantech  Industry = "cleantech"
	IndustryOther      Industry = "other"
)

var industries = map[Industry]bool{
	IndustryFintech:    true,
	IndustryHealthtech: true,
	IndustryEdtech:     true,
	IndustryEcommerce:  true,
	IndustrySaaS:       true,
	IndustryAI:         true,
	IndustryCleantech:  true,
	IndustryOther:      true,
}

// ValidIndustry reports whether s is a known industry value.
func ValidIndustry(s string) bool { return industries[Industry(s)] }

// FundingStage values accepted by the application form.
type FundingStage string

const (
	StagePreSeed FundingStage = "pre-seed"
	StageSeed    FundingStage = "seed"
	StageSeriesA FundingStage = "series-a"
	StageSeriesB FundingStage = "series-b"
	StageSeriesC FundingStage = "series-c"
)

var fundingStages = map[FundingStage]bool{
	StagePreSeed: true,
	StageSeed:    true,
	StageSeriesA: true,
	StageSeriesB: true,
	StageSeriesC: true,
}

// ValidFundingStage reports whether s is a known funding stage value.
func ValidFundingStage(s string) bool { return fundingStages[FundingStage(s)] }

// OwnerRef is the application's owning-user reference. The backend returns it
// either as a bare id string or as an expanded user object, depending on
// whether the query populated the relation.
type OwnerRef struct {
	UserID string
	User   *User
}

// ID returns the owner's user id, or "" when the reference has not been
// populated. Authorization treats "" as no owner.
func (o OwnerRef) ID() string {
	if o.UserID != "" {
		return o.UserID
	}
	if o.User != nil {
		return o.User.ID
	}
	return ""
}

func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		o.UserID = id
		o.User = nil
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	o.UserID = u.ID
	o.User = &u
	return nil
}

func (o OwnerRef) MarshalJSON() ([]byte, error) {
	if o.User != nil {
		return json.Marshal(o.User)
	}
	return json.Marshal(o.UserID)
}

// Views holds the engagement counters for an application.
type Views struct {
	Total       int      `json:"total"`
	UniqueUsers []string `json:"uniqueUsers,omitempty"`
}

// Unique returns the number of distinct viewers.
func (v Views) Unique() int { return len(v.UniqueUsers) }

// TeamMember is one entry of an application's team roster.
type TeamMember struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Image    string `json:"image,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// UpdateType categorizes a startup update post.
type UpdateType string

const (
	UpdateMilestone UpdateType = "milestone"
	UpdateNews      UpdateType = "news"
	UpdateProduct   UpdateType = "product"
	UpdateTeam      UpdateType = "team"
	UpdateFunding   UpdateType = "funding"
)

var updateTypes = map[UpdateType]bool{
	UpdateMilestone: true,
	UpdateNews:      true,
	UpdateProduct:   true,
	UpdateTeam:      true,
	UpdateFunding:   true,
}

// ValidUpdateType reports whether s is a known update category.
func ValidUpdateType(s string) bool { return updateTypes[UpdateType(s)] }

// Update is one entry of an application's updates feed.
type Update struct {
	ID      string     `json:"_id,omitempty"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Type    UpdateType `json:"type"`
	Image   string     `json:"image,omitempty"`
	Date    time.Time  `json:"date"`
}

// PortfolioCompany is one entry of an investor's portfolio list.
type PortfolioCompany struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// Investment is one entry of an application's investor showcase.
type Investment struct {
	ID           string             `json:"_id,omitempty"`
	InvestorName string             `json:"investorName"`
	Amount       float64            `json:"amount"`
	Date         time.Time          `json:"date"`
	InvestorLogo string             `json:"investorLogo,omitempty"`
	Testimonial  string             `json:"testimonial,omitempty"`
	Portfolio    []PortfolioCompany `json:"portfolio,omitempty"`
}

// Application is the central entity of the portal: one founder submission
// representing one startup, carrying its review status and all descriptive
// and engagement data.
type Application struct {
	ID            string        `json:"_id"`
	UserID        OwnerRef      `json:"userId"`
	CompanyName   string        `json:"companyName"`
	Industry      Industry      `json:"industry"`
	Website       string        `json:"website,omitempty"`
	FoundedDate   string        `json:"foundedDate,omitempty"`
	Location      string        `json:"location"`
	TeamSize      int           `json:"teamSize"`
	Pitch         string        `json:"pitch"`
	Problem       string        `json:"problem"`
	Solution      string        `json:"solution"`
	MarketSize    string        `json:"marketSize"`
	Competition   string        `json:"competition"`
	BusinessModel string        `json:"businessModel"`
	FundingStage  FundingStage  `json:"fundingStage"`
	FundingNeeded float64       `json:"fundingNeeded"`
	Logo          string        `json:"logo,omitempty"`
	Banner        string        `json:"banner,omitempty"`
	Status        status.Status `json:"status"`
	Views         Views         `json:"views"`
	TeamMembers   []TeamMember  `json:"teamMembers,omitempty"`
	Updates       []Update      `json:"updates,omitempty"`
	Investments   []Investment  `json:"investments,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt,omitempty"`
}

// OwnerID returns the owning user's id, "" when the owner reference is not
// populated.
func (a *Application) OwnerID() string { return a.UserID.ID() }
