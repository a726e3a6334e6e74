package model

// TicketTier is a priced category of admission (standard, discounted,
// combo deals and so on).  Tiers are owned by the catalog service and are
// immutable once referenced by an order: an order copies the tier name and
// bakes the price into its total at creation time.
//
// Fields:
//  ID    – primary key identifier.
//  Name  – display name copied onto orders and into the gateway ItemName.
//  Price – unit price in minor currency units; never negative.
type TicketTier struct {
    ID    uint64 // ticket_types.id
    Name  string // ticket_types.name
    Price uint32 // ticket_types.price
}
