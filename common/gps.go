package common

/*
https://en.wikipedia.org/wiki/Decimal_degrees

decimal places	degrees	at equator	object
3	0.001	111 m	neighborhood, street
4	0.0001	11.1 m	individual street, large buildings
5	0.00001	1.11 m	individual trees, houses
6	0.000001	111 mm	individual bus seats
*/

// GPSPrecision6 is the precision dashboards display coordinates with.
const GPSPrecision6 = 6
