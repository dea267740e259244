package rates

// DefaultRates is the canonical rate table. It seeds storage on first run and
// backs the admin reset action; there is no other in-code fallback.
var DefaultRates = []RateEntry{
	{VehicleType: VehicleTypeSedan, VehicleSize: VehicleSizeSmall, BaseRate: 50, PerKmRate: 2.5, PerHourRate: 25, MidstopRate: 15},
	{VehicleType: VehicleTypeSedan, VehicleSize: VehicleSizeMedium, BaseRate: 60, PerKmRate: 3.0, PerHourRate: 30, MidstopRate: 20},
	{VehicleType: VehicleTypeSedan, VehicleSize: VehicleSizeLarge, BaseRate: 70, PerKmRate: 3.5, PerHourRate: 35, MidstopRate: 25},

	{VehicleType: VehicleTypeSUV, VehicleSize: VehicleSizeSmall, BaseRate: 70, PerKmRate: 3.5, PerHourRate: 35, MidstopRate: 25},
	{VehicleType: VehicleTypeSUV, VehicleSize: VehicleSizeMedium, BaseRate: 80, PerKmRate: 4.0, PerHourRate: 40, MidstopRate: 30},
	{VehicleType: VehicleTypeSUV, VehicleSize: VehicleSizeLarge, BaseRate: 90, PerKmRate: 4.5, PerHourRate: 45, MidstopRate: 35},

	{VehicleType: VehicleTypeVan, VehicleSize: VehicleSizeSmall, BaseRate: 90, PerKmRate: 4.5, PerHourRate: 45, MidstopRate: 35},
	{VehicleType: VehicleTypeVan, VehicleSize: VehicleSizeMedium, BaseRate: 100, PerKmRate: 5.0, PerHourRate: 50, MidstopRate: 40},
	{VehicleType: VehicleTypeVan, VehicleSize: VehicleSizeLarge, BaseRate: 120, PerKmRate: 6.0, PerHourRate: 60, MidstopRate: 50},

	{VehicleType: VehicleTypeBus, VehicleSize: VehicleSizeSmall, BaseRate: 150, PerKmRate: 7.0, PerHourRate: 70, MidstopRate: 60},
	{VehicleType: VehicleTypeBus, VehicleSize: VehicleSizeMedium, BaseRate: 180, PerKmRate: 8.0, PerHourRate: 80, MidstopRate: 70},
	{VehicleType: VehicleTypeBus, VehicleSize: VehicleSizeLarge, BaseRate: 220, PerKmRate: 9.0, PerHourRate: 90, MidstopRate: 80},
}
