package geo

import "strings"

// regionByDepartment maps INSEE department codes to the 2016 administrative
// regions, including Corsica's alphanumeric codes and the five overseas
// departments.
var regionByDepartment = map[string]string{
	// Auvergne-Rhône-Alpes
	"01": "Auvergne-Rhône-Alpes", "03": "Auvergne-Rhône-Alpes",
	"07": "Auvergne-Rhône-Alpes", "15": "Auvergne-Rhône-Alpes",
	"26": "Auvergne-Rhône-Alpes", "38": "Auvergne-Rhône-Alpes",
	"42": "Auvergne-Rhône-Alpes", "43": "Auvergne-Rhône-Alpes",
	"63": "Auvergne-Rhône-Alpes", "69": "Auvergne-Rhône-Alpes",
	"73": "Auvergne-Rhône-Alpes", "74": "Auvergne-Rhône-Alpes",

	// Bourgogne-Franche-Comté
	"21": "Bourgogne-Franche-Comté", "25": "Bourgogne-Franche-Comté",
	"39": "Bourgogne-Franche-Comté", "58": "Bourgogne-Franche-Comté",
	"70": "Bourgogne-Franche-Comté", "71": "Bourgogne-Franche-Comté",
	"89": "Bourgogne-Franche-Comté", "90": "Bourgogne-Franche-Comté",

	// Bretagne
	"22": "Bretagne", "29": "Bretagne", "35": "Bretagne", "56": "Bretagne",

	// Centre-Val de Loire
	"18": "Centre-Val de Loire", "28": "Centre-Val de Loire",
	"36": "Centre-Val de Loire", "37": "Centre-Val de Loire",
	"41": "Centre-Val de Loire", "45": "Centre-Val de Loire",

	// Corse
	"2A": "Corse", "2B": "Corse",

	// Grand Est
	"08": "Grand Est", "10": "Grand Est", "51": "Grand Est",
	"52": "Grand Est", "54": "Grand Est", "55": "Grand Est",
	"57": "Grand Est", "67": "Grand Est", "68": "Grand Est",
	"88": "Grand Est",

	// Hauts-de-France
	"02": "Hauts-de-France", "59": "Hauts-de-France", "60": "Hauts-de-France",
	"62": "Hauts-de-France", "80": "Hauts-de-France",

	// Île-de-France
	"75": "Île-de-France", "77": "Île-de-France", "78": "Île-de-France",
	"91": "Île-de-France", "92": "Île-de-France", "93": "Île-de-France",
	"94": "Île-de-France", "95": "Île-de-France",

	// Normandie
	"14": "Normandie", "27": "Normandie", "50": "Normandie",
	"61": "Normandie", "76": "Normandie",

	// Nouvelle-Aquitaine
	"16": "Nouvelle-Aquitaine", "17": "Nouvelle-Aquitaine",
	"19": "Nouvelle-Aquitaine", "23": "Nouvelle-Aquitaine",
	"24": "Nouvelle-Aquitaine", "33": "Nouvelle-Aquitaine",
	"40": "Nouvelle-Aquitaine", "47": "Nouvelle-Aquitaine",
	"64": "Nouvelle-Aquitaine", "79": "Nouvelle-Aquitaine",
	"86": "Nouvelle-Aquitaine", "87": "Nouvelle-Aquitaine",

	// Occitanie
	"09": "Occitanie", "11": "Occitanie", "12": "Occitanie",
	"30": "Occitanie", "31": "Occitanie", "32": "Occitanie",
	"34": "Occitanie", "46": "Occitanie", "48": "Occitanie",
	"65": "Occitanie", "66": "Occitanie", "81": "Occitanie",
	"82": "Occitanie",

	// Pays de la Loire
	"44": "Pays de la Loire", "49": "Pays de la Loire",
	"53": "Pays de la Loire", "72": "Pays de la Loire",
	"85": "Pays de la Loire",

	// Provence-Alpes-Côte d'Azur
	"04": "Provence-Alpes-Côte d'Azur", "05": "Provence-Alpes-Côte d'Azur",
	"06": "Provence-Alpes-Côte d'Azur", "13": "Provence-Alpes-Côte d'Azur",
	"83": "Provence-Alpes-Côte d'Azur", "84": "Provence-Alpes-Côte d'Azur",

	// Outre-mer
	"971": "Guadeloupe",
	"972": "Martinique",
	"973": "Guyane",
	"974": "La Réunion",
	"976": "Mayotte",
}

// RegionForDepartment returns the administrative region for an INSEE
// department code ("01".."95", "2A"/"2B", "971".."976"). Codes must be
// zero-padded as INSEE publishes them; case is normalized for Corsica.
func RegionForDepartment(code string) (string, bool) {
	region, ok := regionByDepartment[strings.ToUpper(strings.TrimSpace(code))]
	return region, ok
}
