package staticdata

import "strings"

// Key derives the cache/artifact key for a key base and parameter value:
// "<keyBase>-<param>". Callers are responsible for keeping key bases
// globally unique per call site; no validation is performed.
//
// Example: build a key
//
//	fmt.Println(staticdata.Key("post", "42")) // post-42
func Key(keyBase, param string) string {
	return keyBase + "-" + param
}

// artifactName is the file/URL name holding the payload for key.
func artifactName(key string) string {
	return key + ".json"
}

// joinArtifactURL joins the public path and artifact name, tolerating
// trailing and leading slashes on either side.
func joinArtifactURL(base, name string) string {
	if base == "" {
		return "/" + strings.TrimPrefix(name, "/")
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(name, "/")
}
