package plan

// Clone returns a deep copy of the plan. Every engine operation clones
// before mutating; the caller's plan is never touched.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p

	out.Campaigns = append([]Campaign(nil), p.Campaigns...)
	out.Tactics = append([]Tactic(nil), p.Tactics...)
	out.Audiences = append([]Audience(nil), p.Audiences...)
	out.Vendors = append([]Vendor(nil), p.Vendors...)
	out.Creatives = append([]Creative(nil), p.Creatives...)
	out.Tracking = append([]TrackingRecord(nil), p.Tracking...)
	out.Actuals = append([]DeliveryActual(nil), p.Actuals...)
	out.Approvals = append([]ApprovalEvent(nil), p.Approvals...)

	out.Flights = make([]Flight, len(p.Flights))
	for i, f := range p.Flights {
		f.ActivePeriods = append([]DateRange(nil), f.ActivePeriods...)
		out.Flights[i] = f
	}

	out.LineItems = make([]LineItem, len(p.LineItems))
	for i, li := range p.LineItems {
		li.Extension = li.Extension.clone()
		li.BlockPlan = li.BlockPlan.clone()
		out.LineItems[i] = li
	}

	if p.Constraints.MaxSharePerChannel != nil {
		v := *p.Constraints.MaxSharePerChannel
		out.Constraints.MaxSharePerChannel = &v
	}
	if p.Constraints.MinTacticBudget != nil {
		v := *p.Constraints.MinTacticBudget
		out.Constraints.MinTacticBudget = &v
	}
	return &out
}

func (bp *BlockPlan) clone() *BlockPlan {
	if bp == nil {
		return nil
	}
	return &BlockPlan{
		Version: bp.Version,
		Weeks:   append([]BlockPlanWeek(nil), bp.Weeks...),
	}
}

// CloneTactics deep-copies a tactic list. The allocator uses this so its
// outputs never share backing arrays with inputs.
func CloneTactics(ts []Tactic) []Tactic {
	return append([]Tactic(nil), ts...)
}
