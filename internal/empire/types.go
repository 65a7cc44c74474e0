// Package empire provides the entity model for the Void Trader simulation:
// empires, planets, upgrades, projects, events, messages, and the actors
// who exchange them.
package empire

import "time"

// PlanetType constrains which upgrades a planet can host.
type PlanetType string

const (
	AgriWorld   PlanetType = "AGRI_WORLD"
	ForgeWorld  PlanetType = "FORGE_WORLD"
	HiveWorld   PlanetType = "HIVE_WORLD"
	MiningWorld PlanetType = "MINING_WORLD"
	DeathWorld  PlanetType = "DEATH_WORLD"
)

// PlanetTypes lists every valid planet type.
var PlanetTypes = []PlanetType{AgriWorld, ForgeWorld, HiveWorld, MiningWorld, DeathWorld}

// Valid reports whether t names a known planet type.
func (t PlanetType) Valid() bool {
	switch t {
	case AgriWorld, ForgeWorld, HiveWorld, MiningWorld, DeathWorld:
		return true
	}
	return false
}

// EventType categorizes a planetary crisis.
type EventType string

const (
	EventInsurrection    EventType = "INSURRECTION"
	EventNaturalDisaster EventType = "NATURAL_DISASTER"
	EventEconomicCrisis  EventType = "ECONOMIC_CRISIS"
	EventExternalThreat  EventType = "EXTERNAL_THREAT"
)

// EventTypes lists every valid event type, in the order used for uniform draws.
var EventTypes = []EventType{EventInsurrection, EventNaturalDisaster, EventEconomicCrisis, EventExternalThreat}

// Valid reports whether t names a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventInsurrection, EventNaturalDisaster, EventEconomicCrisis, EventExternalThreat:
		return true
	}
	return false
}

// ProjectStatus is the construction state of a project.
// Transitions only move forward: PLANNED → IN_PROGRESS → COMPLETED.
type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "PLANNED"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
)

// Valid reports whether s names a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanned, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

// MessageType classifies a typed command message. Free-form notes carry no type.
type MessageType string

const (
	MsgNavigationRequest MessageType = "NAVIGATION_REQUEST"
	MsgUpgradeRequest    MessageType = "UPGRADE_REQUEST"
	MsgCrisisResponse    MessageType = "CRISIS_RESPONSE"
	MsgResourcesTransfer MessageType = "RESOURCES_TRANSFER"
	MsgStatusUpdate      MessageType = "STATUS_UPDATE"
)

// Valid reports whether t names a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MsgNavigationRequest, MsgUpgradeRequest, MsgCrisisResponse, MsgResourcesTransfer, MsgStatusUpdate:
		return true
	}
	return false
}

// Command reports whether messages of this type await execution by their
// receiver (as opposed to informational traffic).
func (t MessageType) Command() bool {
	switch t {
	case MsgNavigationRequest, MsgUpgradeRequest, MsgCrisisResponse:
		return true
	}
	return false
}

// Role is an actor's position in the empire's chain of command.
type Role string

const (
	RoleTrader    Role = "TRADER"
	RoleGovernor  Role = "GOVERNOR"
	RoleNavigator Role = "NAVIGATOR"
	RoleAstropath Role = "ASTROPATH"
)

// Amounts is a bundle of the three resource pools every ledger operation
// moves together. All fields are non-negative in any stored balance.
type Amounts struct {
	Wealth    float64 `json:"wealth"`
	Industry  float64 `json:"industry"`
	Resources float64 `json:"resources"`
}

// Add returns a+b.
func (a Amounts) Add(b Amounts) Amounts {
	return Amounts{a.Wealth + b.Wealth, a.Industry + b.Industry, a.Resources + b.Resources}
}

// Sub returns a−b. The result may be negative; callers check Covers first.
func (a Amounts) Sub(b Amounts) Amounts {
	return Amounts{a.Wealth - b.Wealth, a.Industry - b.Industry, a.Resources - b.Resources}
}

// Covers reports whether every pool in a is at least the matching pool in b.
func (a Amounts) Covers(b Amounts) bool {
	return a.Wealth >= b.Wealth && a.Industry >= b.Industry && a.Resources >= b.Resources
}

// Negative reports whether any pool is below zero.
func (a Amounts) Negative() bool {
	return a.Wealth < 0 || a.Industry < 0 || a.Resources < 0
}

// IsZero reports whether all pools are zero.
func (a Amounts) IsZero() bool {
	return a.Wealth == 0 && a.Industry == 0 && a.Resources == 0
}

// Planet is a resource-producing holding owned by exactly one empire for its
// lifetime. Once Rebellious is set the simulation never clears it; only an
// external operator action can.
type Planet struct {
	ID       uint64     `json:"id" db:"id"`
	Name     string     `json:"name" db:"name"`
	EmpireID uint64     `json:"empire_id" db:"empire_id"`
	Type     PlanetType `json:"planet_type" db:"planet_type"`

	Loyalty    float64 `json:"loyalty" db:"loyalty"` // 0–100
	Wealth     float64 `json:"wealth" db:"wealth"`
	Industry   float64 `json:"industry" db:"industry"`
	Resources  float64 `json:"resources" db:"resources"`
	Rebellious bool    `json:"rebellious" db:"rebellious"`
}

// Balance returns the planet's pools as ledger amounts.
func (p *Planet) Balance() Amounts {
	return Amounts{Wealth: p.Wealth, Industry: p.Industry, Resources: p.Resources}
}

// SetBalance overwrites the planet's pools.
func (p *Planet) SetBalance(a Amounts) {
	p.Wealth, p.Industry, p.Resources = a.Wealth, a.Industry, a.Resources
}

// LedgerKey identifies the planet for per-actor ledger serialization.
func (p *Planet) LedgerKey() string { return planetKey(p.ID) }

// Empire is the top-level player aggregate: a rogue trader dynasty holding
// planets and dynasty-wide wealth and industry pools.
type Empire struct {
	ID            uint64  `json:"id" db:"id"`
	DynastyName   string  `json:"dynasty_name" db:"dynasty_name"`
	WarrantNumber string  `json:"warrant_number" db:"warrant_number"`
	TotalWealth   float64 `json:"total_wealth" db:"total_wealth"`
	TotalIndustry float64 `json:"total_industry" db:"total_industry"`
	Influence     int     `json:"influence" db:"influence"` // 0–100
}

// Balance returns the empire's dynasty pools as ledger amounts. Empires hold
// no raw resources pool; that stays planetside.
func (e *Empire) Balance() Amounts {
	return Amounts{Wealth: e.TotalWealth, Industry: e.TotalIndustry}
}

// SetBalance overwrites the empire's dynasty pools.
func (e *Empire) SetBalance(a Amounts) {
	e.TotalWealth, e.TotalIndustry = a.Wealth, a.Industry
}

// LedgerKey identifies the empire for per-actor ledger serialization.
func (e *Empire) LedgerKey() string { return empireKey(e.ID) }

// Upgrade is a static definition of a buildable planetary improvement.
type Upgrade struct {
	ID            uint64     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	CostWealth    float64    `json:"cost_wealth" db:"cost_wealth"`
	CostIndustry  float64    `json:"cost_industry" db:"cost_industry"`
	CostResources float64    `json:"cost_resources" db:"cost_resources"`
	SuitableType  PlanetType `json:"suitable_type" db:"suitable_type"`
}

// Cost returns the upgrade's full three-pool cost.
func (u *Upgrade) Cost() Amounts {
	return Amounts{Wealth: u.CostWealth, Industry: u.CostIndustry, Resources: u.CostResources}
}

// Project is an upgrade under construction on a planet. The cost is debited
// once, at creation; completion has no further ledger effect.
type Project struct {
	ID             uint64        `json:"id" db:"id"`
	PlanetID       uint64        `json:"planet_id" db:"planet_id"`
	UpgradeID      uint64        `json:"upgrade_id" db:"upgrade_id"`
	Status         ProjectStatus `json:"status" db:"status"`
	StartDate      time.Time     `json:"start_date" db:"start_date"`
	CompletionDate *time.Time    `json:"completion_date,omitempty" db:"completion_date"`
}

// Event is a planetary crisis. Resolved flips at most once, from false to
// true; events are never reopened.
type Event struct {
	ID          uint64    `json:"id" db:"id"`
	PlanetID    uint64    `json:"planet_id" db:"planet_id"`
	Type        EventType `json:"event_type" db:"event_type"`
	Severity    int       `json:"severity" db:"severity"` // 1–10
	Description string    `json:"description" db:"description"`
	Resolved    bool      `json:"resolved" db:"resolved"`
	OccurredAt  time.Time `json:"occurred_at" db:"occurred_at"`
}

// Actor is a role-playing participant in the command chain. The warp router
// only needs identity and role; planet/house assignments live with the
// entities they govern.
type Actor struct {
	ID   uint64 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Role Role   `json:"role" db:"role"`
}

// Message is a single warp transmission. One record type serves both
// free-form notes (Type nil) and typed command dispatch. Distorted is fixed
// at creation and never changes afterward.
type Message struct {
	ID         uint64       `json:"id" db:"id"`
	TraceID    string       `json:"trace_id" db:"trace_id"`
	SenderID   uint64       `json:"sender_id" db:"sender_id"`
	ReceiverID uint64       `json:"receiver_id" db:"receiver_id"`
	Content    string       `json:"content" db:"content"`
	Type       *MessageType `json:"message_type,omitempty" db:"message_type"`
	CommandID  *uint64      `json:"command_id,omitempty" db:"command_id"`
	Payload    *Amounts     `json:"payload,omitempty"`

	SentAt         time.Time  `json:"sent_at" db:"sent_at"`
	Delivered      bool       `json:"delivered" db:"delivered"`
	Distorted      bool       `json:"distorted" db:"distorted"`
	Completed      bool       `json:"completed" db:"completed"`
	CompletionDate *time.Time `json:"completion_date,omitempty" db:"completion_date"`
}

// IsCommand reports whether the message awaits execution by its receiver.
func (m *Message) IsCommand() bool {
	return m.Type != nil && m.Type.Command() && !m.Completed
}

// Route is a navigator-charted warp lane between two planets.
type Route struct {
	ID          uint64 `json:"id" db:"id"`
	FromPlanet  uint64 `json:"from_planet_id" db:"from_planet_id"`
	ToPlanet    uint64 `json:"to_planet_id" db:"to_planet_id"`
	NavigatorID uint64 `json:"navigator_id" db:"navigator_id"`
	Stable      bool   `json:"stable" db:"stable"`
}
