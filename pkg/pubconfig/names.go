// SPDX-License-Identifier: MPL-2.0

package pubconfig

// Declared section names.
const (
	SectionBuild      Section = "BUILD"
	SectionProvision  Section = "PROVISION"
	SectionDeploy     Section = "DEPLOY"
	SectionPubpublica Section = "PUBPUBLICA"
	SectionFlask      Section = "FLASK"
	SectionRedis      Section = "REDIS"
)

// Declared keys.
const (
	KeyLocalConfigPath Key = "LOCAL_CONFIG_PATH"
	KeyLocalAppPath    Key = "LOCAL_APP_PATH"

	KeyDependencies Key = "DEPENDENCIES"

	KeyUser           Key = "USER"
	KeyGroup          Key = "GROUP"
	KeyAppPath        Key = "APP_PATH"
	KeyProductionPath Key = "PRODUCTION_PATH"
	KeySocketPath     Key = "SOCKET_PATH"
	KeyIncludes       Key = "INCLUDES"
	KeyDeployedIDFile Key = "DEPLOYED_ID_FILE"

	KeyPubpublicaConfigFile Key = "PUBPUBLICA_CONFIG_FILE"
	KeyPublicationsPath     Key = "PUBLICATIONS_PATH"

	KeyFlaskConfigFile    Key = "FLASK_CONFIG_FILE"
	KeyFlaskSecretKeyPath Key = "FLASK_SECRET_KEY_PATH"

	KeyRedisConfigFile   Key = "REDIS_CONFIG_FILE"
	KeyRedisHost         Key = "REDIS_HOST"
	KeyRedisPort         Key = "REDIS_PORT"
	KeyRedisPasswordPath Key = "REDIS_PASSWORD_PATH"
)

type (
	// Section names a top-level group of settings.
	Section string

	// Key names a setting within a section.
	Key string

	// DeclaredKey is a key the tooling relies on, with its expected kind.
	DeclaredKey struct {
		Key  Key
		Kind Kind
	}

	declaredSection struct {
		name Section
		keys []DeclaredKey
	}
)

var declared = []declaredSection{
	{SectionBuild, []DeclaredKey{
		{KeyLocalConfigPath, KindString},
		{KeyLocalAppPath, KindString},
	}},
	{SectionProvision, []DeclaredKey{
		{KeyDependencies, KindList},
	}},
	{SectionDeploy, []DeclaredKey{
		{KeyUser, KindString},
		{KeyGroup, KindString},
		{KeyAppPath, KindString},
		{KeyProductionPath, KindString},
		{KeySocketPath, KindString},
		{KeyIncludes, KindList},
		{KeyDeployedIDFile, KindString},
	}},
	{SectionPubpublica, []DeclaredKey{
		{KeyPubpublicaConfigFile, KindString},
		{KeyPublicationsPath, KindString},
	}},
	{SectionFlask, []DeclaredKey{
		{KeyFlaskConfigFile, KindString},
		{KeyFlaskSecretKeyPath, KindString},
	}},
	{SectionRedis, []DeclaredKey{
		{KeyRedisConfigFile, KindString},
		{KeyRedisHost, KindString},
		{KeyRedisPort, KindInt},
		{KeyRedisPasswordPath, KindString},
	}},
}

// DeclaredSections returns the sections the deployment tooling reads, in
// their conventional order.
func DeclaredSections() []Section {
	out := make([]Section, len(declared))
	for i, s := range declared {
		out[i] = s.name
	}
	return out
}

// DeclaredKeys returns the keys declared for section. Unknown sections have
// none.
func DeclaredKeys(section Section) []DeclaredKey {
	for _, s := range declared {
		if s.name == section {
			out := make([]DeclaredKey, len(s.keys))
			copy(out, s.keys)
			return out
		}
	}
	return nil
}

// IsDeclared reports whether section is one of the declared sections.
func (s Section) IsDeclared() bool {
	return DeclaredKeys(s) != nil
}
