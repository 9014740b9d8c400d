package analysis

// builtins are names always bound in an R session.
var builtins = map[string]struct{}{
	"T": {}, "F": {}, "TRUE": {}, "FALSE": {}, "NULL": {}, "NA": {}, "Inf": {}, "NaN": {},
	"NA_integer_": {}, "NA_real_": {}, "NA_character_": {}, "NA_complex_": {},
	"pi": {}, "LETTERS": {}, "letters": {}, "month.abb": {}, "month.name": {},
	"...": {}, ".Machine": {}, ".GlobalEnv": {}, ".Platform": {}, ".libPaths": {},
	"R.version": {}, "R.version.string": {}, "version": {}, ".Last.value": {},
	"iris": {}, "mtcars": {}, "airquality": {}, "ToothGrowth": {}, "PlantGrowth": {},
	"faithful": {}, "cars": {}, "women": {}, "trees": {}, "USArrests": {},
	"sum": {}, "mean": {}, "length": {}, "print": {}, "paste": {}, "paste0": {},
	"c": {}, "list": {}, "identity": {}, "is.na": {}, "nrow": {}, "ncol": {},
	"Sys.time": {}, "Sys.Date": {}, "environment": {}, "globalenv": {}, "emptyenv": {},
}

func isBuiltin(name string) bool {
	if _, ok := builtins[name]; ok {
		return true
	}
	// ..1, ..2
	return len(name) > 2 && name[0] == '.' && name[1] == '.' && name[2] >= '0' && name[2] <= '9'
}
