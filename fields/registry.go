/*
registry.go - The default resolver table

Generic resolvers cover the line-item and flight columns every channel
shares. Channel resolvers cover the extension payloads; each reads the
tagged union through its discriminant rather than probing variants.
*/
package fields

import "github.com/warp/plan-engine/plan"

// DefaultRegistry builds the resolver table used by the flighting
// editor.
func DefaultRegistry() *Registry {
	r := &Registry{
		byChannel: map[plan.Channel]map[FieldID]Resolver{},
		generic:   genericResolvers(),
	}

	for _, ch := range []plan.Channel{plan.ChannelOOH, plan.ChannelDOOH} {
		registerOOH(r, ch)
	}
	for _, ch := range []plan.Channel{plan.ChannelTV, plan.ChannelCinema} {
		registerTV(r, ch)
	}
	for _, ch := range []plan.Channel{plan.ChannelRadio, plan.ChannelAudio, plan.ChannelPodcast} {
		registerRadio(r, ch)
	}
	registerPrint(r, plan.ChannelPrint)
	for _, ch := range []plan.Channel{plan.ChannelDisplay, plan.ChannelVideo, plan.ChannelNative} {
		registerDisplay(r, ch)
	}
	for _, ch := range []plan.Channel{plan.ChannelSocial, plan.ChannelInfluencer, plan.ChannelEmail} {
		registerSocial(r, ch)
	}
	registerSearch(r, plan.ChannelSearch)
	return r
}

// =============================================================================
// GENERIC RESOLVERS
// =============================================================================

func genericResolvers() map[FieldID]Resolver {
	return map[FieldID]Resolver{
		FieldRate: {
			Read: func(c Context) any { return c.LineItem.Rate },
			Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
				return writeLineItem(p, id, func(li *plan.LineItem) {
					if f, ok := asFloat(v); ok {
						li.Rate = normalizeMoney(f)
					}
				})
			},
			Validate: func(v any, _ Context) *string {
				f, ok := asFloat(v)
				if !ok {
					return msg("rate must be a number")
				}
				if f < 0 {
					return msg("rate cannot be negative")
				}
				return nil
			},
		},
		FieldPlannedUnits: {
			Read: func(c Context) any { return c.LineItem.PlannedUnits },
			Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
				return writeLineItem(p, id, func(li *plan.LineItem) {
					if f, ok := asFloat(v); ok {
						li.PlannedUnits = normalizeMoney(f)
					}
				})
			},
			Validate: numberValidator("planned units"),
		},
		FieldPlannedCost: {
			Read: func(c Context) any { return c.LineItem.PlannedCost },
			Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
				return writeLineItem(p, id, func(li *plan.LineItem) {
					if f, ok := asFloat(v); ok {
						li.PlannedCost = normalizeMoney(f)
					}
				})
			},
			Validate: numberValidator("planned cost"),
		},
		FieldVendor: {
			Read: func(c Context) any { return c.LineItem.VendorID },
			Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
				return writeLineItem(p, id, func(li *plan.LineItem) {
					if s, ok := asString(v); ok {
						li.VendorID = s
					}
				})
			},
			Validate: func(v any, _ Context) *string {
				if s, ok := asString(v); !ok || s == "" {
					return msg("vendor is required")
				}
				return nil
			},
		},
		FieldCreative: {
			Read: func(c Context) any { return c.LineItem.CreativeID },
			Write: stringWriter(func(li *plan.LineItem, s string) { li.CreativeID = s }),
		},
		FieldAudience: {
			Read: func(c Context) any { return c.LineItem.AudienceID },
			Write: stringWriter(func(li *plan.LineItem, s string) { li.AudienceID = s }),
		},
		FieldFlightStart: {
			Read: func(c Context) any {
				if c.Flight == nil {
					return nil
				}
				return c.Flight.StartDate
			},
			Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
				return writeFlightDate(p, id, true, v)
			},
			Validate: dateOrderValidator(true),
		},
		FieldFlightEnd: {
			Read: func(c Context) any {
				if c.Flight == nil {
					return nil
				}
				return c.Flight.EndDate
			},
			Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
				return writeFlightDate(p, id, false, v)
			},
			Validate: dateOrderValidator(false),
		},
	}
}

func msg(s string) *string { return &s }

func numberValidator(name string) func(any, Context) *string {
	return func(v any, _ Context) *string {
		f, ok := asFloat(v)
		if !ok {
			return msg(name + " must be a number")
		}
		if f < 0 {
			return msg(name + " cannot be negative")
		}
		return nil
	}
}

// dateOrderValidator checks the date parses and keeps the flight window
// ordered against its other bound.
func dateOrderValidator(isStart bool) func(any, Context) *string {
	return func(v any, c Context) *string {
		d, ok := asDate(v)
		if !ok {
			return msg("invalid date")
		}
		if c.Flight == nil {
			return msg("no flight assigned")
		}
		if isStart && !c.Flight.EndDate.IsZero() && d.After(c.Flight.EndDate) {
			return msg("start date is after end date")
		}
		if !isStart && !c.Flight.StartDate.IsZero() && d.Before(c.Flight.StartDate) {
			return msg("end date is before start date")
		}
		return nil
	}
}

func stringWriter(set func(*plan.LineItem, string)) func(*plan.Plan, plan.LineItemID, any) (*plan.Plan, error) {
	return func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
		return writeLineItem(p, id, func(li *plan.LineItem) {
			if s, ok := asString(v); ok {
				set(li, s)
			}
		})
	}
}

// =============================================================================
// CHANNEL RESOLVERS
// =============================================================================

func registerOOH(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldOOHOwner, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.OOH != nil {
				return e.OOH.Owner
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).OOH.Owner = s }),
	})
	r.Register(ch, FieldOOHPanelCount, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.OOH != nil {
				return e.OOH.PanelCount
			}
			return 0
		},
		Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
			return writeLineItem(p, id, func(li *plan.LineItem) {
				if f, ok := asFloat(v); ok {
					ext(li).OOH.PanelCount = normalizeCount(f)
				}
			})
		},
		Validate: numberValidator("panel count"),
	})
	r.Register(ch, FieldOOHFacing, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.OOH != nil {
				return e.OOH.Facing
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).OOH.Facing = s }),
	})
	r.Register(ch, FieldOOHIlluminated, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.OOH != nil {
				return e.OOH.Illuminated
			}
			return false
		},
		Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
			return writeLineItem(p, id, func(li *plan.LineItem) {
				if b, ok := asBool(v); ok {
					ext(li).OOH.Illuminated = b
				}
			})
		},
	})
}

func registerTV(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldTVProgram, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.TV != nil {
				return e.TV.Program
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).TV.Program = s }),
	})
	r.Register(ch, FieldTVDaypart, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.TV != nil {
				return e.TV.Daypart
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).TV.Daypart = s }),
	})
	r.Register(ch, FieldTVSpotLength, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.TV != nil {
				return e.TV.SpotLength
			}
			return 0
		},
		Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
			return writeLineItem(p, id, func(li *plan.LineItem) {
				if f, ok := asFloat(v); ok {
					ext(li).TV.SpotLength = normalizeCount(f)
				}
			})
		},
		Validate: numberValidator("spot length"),
	})
}

func registerRadio(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldRadioStation, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Radio != nil {
				return e.Radio.Station
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Radio.Station = s }),
	})
	r.Register(ch, FieldRadioDaypart, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Radio != nil {
				return e.Radio.Daypart
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Radio.Daypart = s }),
	})
}

func registerPrint(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldPrintPublication, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Print != nil {
				return e.Print.Publication
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Print.Publication = s }),
	})
	r.Register(ch, FieldPrintInsertions, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Print != nil {
				return e.Print.Insertions
			}
			return 0
		},
		Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
			return writeLineItem(p, id, func(li *plan.LineItem) {
				if f, ok := asFloat(v); ok {
					ext(li).Print.Insertions = normalizeCount(f)
				}
			})
		},
		Validate: numberValidator("insertions"),
	})
}

func registerDisplay(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldDisplayFormat, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Display != nil {
				return e.Display.AdFormat
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Display.AdFormat = s }),
	})
	r.Register(ch, FieldDisplayPlacement, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Display != nil {
				return e.Display.Placement
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Display.Placement = s }),
	})
	r.Register(ch, FieldDisplayViewability, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Display != nil {
				return e.Display.ViewabilityTarget
			}
			return 0.0
		},
		Write: func(p *plan.Plan, id plan.LineItemID, v any) (*plan.Plan, error) {
			return writeLineItem(p, id, func(li *plan.LineItem) {
				if f, ok := asFloat(v); ok {
					ext(li).Display.ViewabilityTarget = normalizeMoney(f)
				}
			})
		},
		Validate: numberValidator("viewability target"),
	})
}

func registerSocial(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldSocialPlatform, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Social != nil {
				return e.Social.Platform
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Social.Platform = s }),
	})
	r.Register(ch, FieldSocialObjective, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Social != nil {
				return e.Social.Objective
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Social.Objective = s }),
	})
}

func registerSearch(r *Registry, ch plan.Channel) {
	r.Register(ch, FieldSearchMatchType, Resolver{
		Read: func(c Context) any {
			if e := c.LineItem.Extension; e != nil && e.Search != nil {
				return e.Search.MatchType
			}
			return ""
		},
		Write: stringWriter(func(li *plan.LineItem, s string) { ext(li).Search.MatchType = s }),
	})
}
