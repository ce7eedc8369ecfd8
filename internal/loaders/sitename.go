package loaders

import "regexp"

// sitePattern matches the /sites/<name> segment of an SPO-style path.
var sitePattern = regexp.MustCompile(`(?i)/sites/([^/]+)`)

// ExtractSiteName resolves the site a file belongs to from the candidate
// fields of a classification export row, in fixed precedence order: the
// document link, the compound path, the data source, then the raw target
// path. The export artifact folder "Items" is never a site name. Returns
// "Unknown" when no candidate matches.
func ExtractSiteName(docLink, compoundPath, dataSource, targetPath string) string {
	for _, candidate := range []string{docLink, compoundPath, dataSource, targetPath} {
		if candidate == "" {
			continue
		}
		m := sitePattern.FindStringSubmatch(candidate)
		if m == nil {
			continue
		}
		if name := m[1]; name != "" && name != "Items" {
			return name
		}
	}
	return "Unknown"
}
