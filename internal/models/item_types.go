package models

// ItemTypeInfo is the presentation data for one item type.
type ItemTypeInfo struct {
	Label      string `json:"label"`
	ColorClass string `json:"color_class"`
	Icon       string `json:"icon"`
}

// ItemTypes maps every item type to its label, color and icon.
var ItemTypes = map[ItemType]ItemTypeInfo{
	ItemApartment:  {Label: "Stay", ColorClass: "bg-blue-100 text-blue-800", Icon: "home"},
	ItemCar:        {Label: "Car rental", ColorClass: "bg-slate-100 text-slate-800", Icon: "car"},
	ItemRestaurant: {Label: "Restaurant", ColorClass: "bg-orange-100 text-orange-800", Icon: "utensils"},
	ItemEvent:      {Label: "Event", ColorClass: "bg-purple-100 text-purple-800", Icon: "ticket"},
	ItemActivity:   {Label: "Activity", ColorClass: "bg-green-100 text-green-800", Icon: "compass"},
	ItemTransport:  {Label: "Transport", ColorClass: "bg-cyan-100 text-cyan-800", Icon: "bus"},
	ItemNote:       {Label: "Note", ColorClass: "bg-yellow-100 text-yellow-800", Icon: "sticky-note"},
}

// fallback for types persisted before they were known to this build
var unknownItemType = ItemTypeInfo{Label: "Item", ColorClass: "bg-gray-100 text-gray-800", Icon: "circle"}

// Info returns the presentation data for t.
func (t ItemType) Info() ItemTypeInfo {
	if info, ok := ItemTypes[t]; ok {
		return info
	}
	return unknownItemType
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	_, ok := ItemTypes[t]
	return ok
}
