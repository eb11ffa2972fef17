package asset

import "github.com/saferoute/saferoute/internal/geo"

// Seed returns the built-in assets around DJ Sanghvi College, used until the
// remote snapshot is loaded.
func Seed() Snapshot {
	return Snapshot{
		CCTV: []CCTV{
			// DJ Sanghvi -> Vile Parle station corridor
			{ID: "CCTV-001 (College Gate)", Position: geo.Coordinate{Lat: 19.1072, Lng: 72.8375}},
			{ID: "CCTV-002 (Gulmohar Cross)", Position: geo.Coordinate{Lat: 19.1065, Lng: 72.8382}},
			{ID: "CCTV-003 (Mithibai Jnc)", Position: geo.Coordinate{Lat: 19.1058, Lng: 72.8390}},
			{ID: "CCTV-004 (SV Road)", Position: geo.Coordinate{Lat: 19.1045, Lng: 72.8405}},
			{ID: "CCTV-005 (Market Rd)", Position: geo.Coordinate{Lat: 19.1035, Lng: 72.8420}},
			{ID: "CCTV-006 (Station West)", Position: geo.Coordinate{Lat: 19.1028, Lng: 72.8435}},
			// DJ Sanghvi -> Juhu police station corridor
			{ID: "CCTV-007 (JVPD Scheme)", Position: geo.Coordinate{Lat: 19.1075, Lng: 72.8360}},
			{ID: "CCTV-008 (Juhu Circle)", Position: geo.Coordinate{Lat: 19.1072, Lng: 72.8345}},
			{ID: "CCTV-009 (Juhu Tara Rd)", Position: geo.Coordinate{Lat: 19.1065, Lng: 72.8325}},
			{ID: "CCTV-010 (Juhu Beach Entry)", Position: geo.Coordinate{Lat: 19.1055, Lng: 72.8305}},
			// North towards Cooper
			{ID: "CCTV-011 (Cooper Signal)", Position: geo.Coordinate{Lat: 19.1090, Lng: 72.8372}},
			{ID: "CCTV-012 (Irla Market)", Position: geo.Coordinate{Lat: 19.1110, Lng: 72.8370}},
		},
		Criminal: []DangerZone{
			{Label: "Theft Hotspot", Position: geo.Coordinate{Lat: 19.1055, Lng: 72.8395}, RadiusMeters: DefaultDangerRadius},
		},
		Safe: []SafeLocation{
			{Name: "Vile Parle Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.1020, Lng: 72.8450}},
			{Name: "Juhu Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.1050, Lng: 72.8280}},
			{Name: "Santacruz Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.0840, Lng: 72.8360}},
			{Name: "Andheri Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.1140, Lng: 72.8460}},
			{Name: "Khar Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.0700, Lng: 72.8340}},
			{Name: "Bandra Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.0550, Lng: 72.8300}},
			{Name: "Versova Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.1320, Lng: 72.8120}},
			{Name: "Oshiwara Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.1450, Lng: 72.8300}},
			{Name: "Vakola Police Station", Kind: KindPolice, Position: geo.Coordinate{Lat: 19.0800, Lng: 72.8550}},
			{Name: "Police Chauki (Juhu Circle)", Kind: KindChauki, Position: geo.Coordinate{Lat: 19.1100, Lng: 72.8300}},
			{Name: "Police Chauki (Milan Subway)", Kind: KindChauki, Position: geo.Coordinate{Lat: 19.0900, Lng: 72.8420}},
			{Name: "Police Chauki (Seven Bungalows)", Kind: KindChauki, Position: geo.Coordinate{Lat: 19.1280, Lng: 72.8180}},
			{Name: "Police Chauki (Kalanagar)", Kind: KindChauki, Position: geo.Coordinate{Lat: 19.0600, Lng: 72.8500}},
			{Name: "Patrol Vehicle Alpha (SV Road)", Kind: KindPatrol, Position: geo.Coordinate{Lat: 19.1050, Lng: 72.8400}},
			{Name: "Patrol Vehicle Beta (Linking Road)", Kind: KindPatrol, Position: geo.Coordinate{Lat: 19.0650, Lng: 72.8350}},
			{Name: "Patrol Vehicle Gamma (WEH Andheri)", Kind: KindPatrol, Position: geo.Coordinate{Lat: 19.1150, Lng: 72.8550}},
			{Name: "Patrol Vehicle Delta (Juhu Tara)", Kind: KindPatrol, Position: geo.Coordinate{Lat: 19.0950, Lng: 72.8280}},
			{Name: "Patrol Vehicle Epsilon (Lokhandwala)", Kind: KindPatrol, Position: geo.Coordinate{Lat: 19.1400, Lng: 72.8250}},
		},
	}
}
