/*
Package plan provides the media-plan computation engine.

PURPOSE:
  This package contains the pure, deterministic core of the planner:
  the Plan aggregate and its children, calendar bucketing, budget
  proration, block-plan matrix building, week-flag/flight sync, plan
  totals, and the draft/submit/approve lifecycle.

KEY CONCEPTS IN THIS FILE (types.go):
  - Plan:      Aggregate root. Owns campaigns, flights, line items,
               tactics, and the approval audit trail. Its date range is
               always the min/max of its flights' ranges.
  - Tactic:    A flat budget line (channel + flight window + budget),
               the unit the allocator and matrix builder work on.
  - LineItem:  A channel placement inside a flight, optionally carrying
               a channel extension and a BlockPlan week schedule.
  - BlockPlan: The per-week active/inactive schedule of a line item,
               spanning the plan's full date range.

DESIGN PRINCIPLES:
  1. Value semantics: every operation deep-clones its input Plan and
     returns a new one; callers adopt the returned value.
  2. Rejected operations return the input unchanged, not an error.
  3. No I/O, no clocks, no goroutines. Pure transformations only.

SEE ALSO:
  - weeksync.go: Block-plan week grid maintenance
  - matrix.go:   Block-plan matrix (reporting view)
  - workflow.go: Lifecycle transitions and the approval audit trail
*/
package plan

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PlanID string
type CampaignID string
type FlightID string
type LineItemID string
type TacticID string

// =============================================================================
// ENUMS
// =============================================================================

// Status is the plan lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

// Editable reports whether the plan may be structurally modified.
// Only drafts are editable; everything else is read-only until reverted.
func (s Status) Editable() bool { return s == StatusDraft }

// Channel identifies a media channel. Each channel maps to exactly one
// ChannelExtension variant on line items.
type Channel string

const (
	ChannelTV         Channel = "tv"
	ChannelRadio      Channel = "radio"
	ChannelOOH        Channel = "ooh"
	ChannelPrint      Channel = "print"
	ChannelDisplay    Channel = "display"
	ChannelSocial     Channel = "social"
	ChannelSearch     Channel = "search"
	ChannelVideo      Channel = "online_video"
	ChannelAudio      Channel = "streaming_audio"
	ChannelCinema     Channel = "cinema"
	ChannelEmail      Channel = "email"
	ChannelInfluencer Channel = "influencer"
	ChannelNative     Channel = "native"
	ChannelPodcast    Channel = "podcast"
	ChannelDOOH       Channel = "dooh"
)

// BidType is the pricing basis for a tactic.
type BidType string

const (
	BidCPM BidType = "cpm"
	BidCPC BidType = "cpc"
	BidCPA BidType = "cpa"
)

// =============================================================================
// PLAN - Aggregate root
// =============================================================================

type Plan struct {
	ID      PlanID `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Version int    `json:"version"`

	Status Status `json:"status"`
	Goal   Goal   `json:"goal"`

	// Derived: always the min/max of child flight ranges. Recomputed by
	// UpdatePlanTimeline after every structural change.
	StartDate Date `json:"start_date"`
	EndDate   Date `json:"end_date"`

	WeekStart WeekStartDay `json:"week_start"`

	Campaigns []Campaign       `json:"campaigns,omitempty"`
	Flights   []Flight         `json:"flights,omitempty"`
	Audiences []Audience       `json:"audiences,omitempty"`
	Vendors   []Vendor         `json:"vendors,omitempty"`
	Creatives []Creative       `json:"creatives,omitempty"`
	LineItems []LineItem       `json:"line_items,omitempty"`
	Tactics   []Tactic         `json:"tactics,omitempty"`
	Tracking  []TrackingRecord `json:"tracking,omitempty"`
	Actuals   []DeliveryActual `json:"actuals,omitempty"`

	// Append-only audit trail. Never mutated or deleted.
	Approvals []ApprovalEvent `json:"approvals,omitempty"`

	Constraints Constraints `json:"constraints"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Goal holds the plan's top-line targets.
type Goal struct {
	Budget    float64 `json:"budget"`
	Reach     float64 `json:"reach"`
	Frequency float64 `json:"frequency"`
}

// Constraints are the plan-level allocator constraints.
type Constraints struct {
	// MaxSharePerChannel caps any one channel's share of total budget,
	// as a fraction in (0, 1). Nil means uncapped.
	MaxSharePerChannel *float64 `json:"max_share_per_channel,omitempty"`

	// MinTacticBudget is the floor assigned per tactic when splitting a
	// zero total. Nil means 0.
	MinTacticBudget *float64 `json:"min_tactic_budget,omitempty"`
}

// =============================================================================
// CHILDREN
// =============================================================================

type Campaign struct {
	ID        CampaignID `json:"id"`
	Name      string     `json:"name"`
	StartDate Date       `json:"start_date"`
	EndDate   Date       `json:"end_date"`
	Budget    float64    `json:"budget"`
}

func (c Campaign) Window() DateRange { return DateRange{Start: c.StartDate, End: c.EndDate} }

type Flight struct {
	ID         FlightID   `json:"id"`
	CampaignID CampaignID `json:"campaign_id"`
	StartDate  Date       `json:"start_date"`
	EndDate    Date       `json:"end_date"`

	// ActivePeriods are optional live sub-ranges within the flight, for
	// pulsing/hiatus patterns. Empty means the whole flight is live.
	ActivePeriods []DateRange `json:"active_periods,omitempty"`

	Budget  float64 `json:"budget"`
	BuyType string  `json:"buy_type,omitempty"`
}

func (f Flight) Window() DateRange { return DateRange{Start: f.StartDate, End: f.EndDate} }

// LiveRanges returns the sub-ranges of the flight that are actually
// live: the explicit active periods when set, the full window otherwise.
func (f Flight) LiveRanges() []DateRange {
	if len(f.ActivePeriods) > 0 {
		return f.ActivePeriods
	}
	return []DateRange{f.Window()}
}

type LineItem struct {
	ID         LineItemID `json:"id"`
	FlightID   FlightID   `json:"flight_id"`
	Channel    Channel    `json:"channel"`
	VendorID   string     `json:"vendor_id,omitempty"`
	CreativeID string     `json:"creative_id,omitempty"`
	AudienceID string     `json:"audience_id,omitempty"`

	PricingModel BidType `json:"pricing_model,omitempty"`
	Rate         float64 `json:"rate"`
	PlannedUnits float64 `json:"planned_units"`
	PlannedCost  float64 `json:"planned_cost"`

	// Extension carries the channel-specific payload; exactly one variant
	// is populated, matching Channel.
	Extension *ChannelExtension `json:"extension,omitempty"`

	BlockPlan *BlockPlan `json:"block_plan,omitempty"`
}

// Tactic is the flat budget line the allocator and matrix builder
// operate on.
type Tactic struct {
	ID         TacticID   `json:"id"`
	CampaignID CampaignID `json:"campaign_id"`
	Channel    Channel    `json:"channel"`
	Vendor     string     `json:"vendor,omitempty"`

	FlightStart Date `json:"flight_start"`
	FlightEnd   Date `json:"flight_end"`

	Budget  float64 `json:"budget"`
	BidType BidType `json:"bid_type"`

	// Goal is the unit target matching BidType (impressions for CPM,
	// clicks for CPC, conversions for CPA).
	Goal float64 `json:"goal"`

	// Efficiency estimates; 0 means unset.
	EstCPM float64 `json:"est_cpm,omitempty"`
	EstCPC float64 `json:"est_cpc,omitempty"`
	EstCPA float64 `json:"est_cpa,omitempty"`

	Notes string `json:"notes,omitempty"`
}

func (t Tactic) Window() DateRange { return DateRange{Start: t.FlightStart, End: t.FlightEnd} }

type Audience struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Creative struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size string `json:"size,omitempty"`
}

type TrackingRecord struct {
	ID         string `json:"id"`
	LineItemID string `json:"line_item_id"`
	Tag        string `json:"tag"`
	URL        string `json:"url,omitempty"`
}

type DeliveryActual struct {
	ID          string  `json:"id"`
	LineItemID  string  `json:"line_item_id"`
	Date        Date    `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions float64 `json:"impressions"`
}

// =============================================================================
// BLOCK PLAN - Per-week active schedule of a line item
// =============================================================================

type BlockPlan struct {
	Version int             `json:"version"`
	Weeks   []BlockPlanWeek `json:"weeks"`
}

type BlockPlanWeek struct {
	WeekStart Date `json:"week_start"`
	Active    bool `json:"active"`
}

// ActiveCount returns the number of active weeks.
func (bp *BlockPlan) ActiveCount() int {
	if bp == nil {
		return 0
	}
	n := 0
	for _, w := range bp.Weeks {
		if w.Active {
			n++
		}
	}
	return n
}

// =============================================================================
// APPROVAL EVENT - Immutable audit record
// =============================================================================

type ApprovalAction string

const (
	ActionCreated    ApprovalAction = "created"
	ActionEdited     ApprovalAction = "edited"
	ActionSubmitted  ApprovalAction = "submitted"
	ActionApproved   ApprovalAction = "approved"
	ActionRejected   ApprovalAction = "rejected"
	ActionReverted   ApprovalAction = "reverted"
	ActionDuplicated ApprovalAction = "duplicated"
)

type ApprovalEvent struct {
	ID      string         `json:"id"`
	Actor   string         `json:"actor"`
	Action  ApprovalAction `json:"action"`
	Comment string         `json:"comment,omitempty"`
	At      time.Time      `json:"at"`
}

// =============================================================================
// LOOKUPS - Structural accessors (missing ids are caller bugs)
// =============================================================================

// FindLineItem returns the line item with the given id, or
// ErrLineItemNotFound.
func (p *Plan) FindLineItem(id LineItemID) (*LineItem, error) {
	for i := range p.LineItems {
		if p.LineItems[i].ID == id {
			return &p.LineItems[i], nil
		}
	}
	return nil, ErrLineItemNotFound
}

// FindFlight returns the flight with the given id, or ErrFlightNotFound.
func (p *Plan) FindFlight(id FlightID) (*Flight, error) {
	for i := range p.Flights {
		if p.Flights[i].ID == id {
			return &p.Flights[i], nil
		}
	}
	return nil, ErrFlightNotFound
}

// FindCampaign returns the campaign with the given id, or
// ErrCampaignNotFound.
func (p *Plan) FindCampaign(id CampaignID) (*Campaign, error) {
	for i := range p.Campaigns {
		if p.Campaigns[i].ID == id {
			return &p.Campaigns[i], nil
		}
	}
	return nil, ErrCampaignNotFound
}

// FindTactic returns the tactic with the given id, or ErrTacticNotFound.
func (p *Plan) FindTactic(id TacticID) (*Tactic, error) {
	for i := range p.Tactics {
		if p.Tactics[i].ID == id {
			return &p.Tactics[i], nil
		}
	}
	return nil, ErrTacticNotFound
}

// DateRange returns the plan's own [StartDate, EndDate] range.
func (p *Plan) DateRange() DateRange {
	return DateRange{Start: p.StartDate, End: p.EndDate}
}
