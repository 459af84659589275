// SPDX-License-Identifier: MPL-2.0

package pubconfig

type (
	// BuildSettings is the BUILD section: local inputs for artifact packing.
	BuildSettings struct {
		LocalConfigPath string
		LocalAppPath    string
	}

	// ProvisionSettings is the PROVISION section.
	ProvisionSettings struct {
		// Dependencies are system packages installed on the target host.
		Dependencies []string
	}

	// DeploySettings is the DEPLOY section.
	DeploySettings struct {
		User           string
		Group          string
		AppPath        string
		ProductionPath string
		SocketPath     string
		// Includes are the paths packed into the deployment artifact.
		Includes       []string
		DeployedIDFile string
	}

	// PubpublicaSettings is the PUBPUBLICA section.
	PubpublicaSettings struct {
		ConfigFile       string
		PublicationsPath string
	}

	// FlaskSettings is the FLASK section.
	FlaskSettings struct {
		ConfigFile    string
		SecretKeyPath string
	}

	// RedisSettings is the REDIS section.
	RedisSettings struct {
		ConfigFile   string
		Host         string
		Port         int
		PasswordPath string
	}

	// sectionReader reads keys from one section and keeps the first error,
	// so a typed view is built in one pass and fails on the first gap.
	sectionReader struct {
		doc     *Document
		section Section
		err     error
	}
)

// Build returns the BUILD section. Every key is required.
func (d *Document) Build() (BuildSettings, error) {
	r := &sectionReader{doc: d, section: SectionBuild}
	s := BuildSettings{
		LocalConfigPath: r.str(KeyLocalConfigPath),
		LocalAppPath:    r.str(KeyLocalAppPath),
	}
	if r.err != nil {
		return BuildSettings{}, r.err
	}
	return s, nil
}

// Provision returns the PROVISION section. Every key is required.
func (d *Document) Provision() (ProvisionSettings, error) {
	r := &sectionReader{doc: d, section: SectionProvision}
	s := ProvisionSettings{
		Dependencies: r.list(KeyDependencies),
	}
	if r.err != nil {
		return ProvisionSettings{}, r.err
	}
	return s, nil
}

// Deploy returns the DEPLOY section. Every key is required.
func (d *Document) Deploy() (DeploySettings, error) {
	r := &sectionReader{doc: d, section: SectionDeploy}
	s := DeploySettings{
		User:           r.str(KeyUser),
		Group:          r.str(KeyGroup),
		AppPath:        r.str(KeyAppPath),
		ProductionPath: r.str(KeyProductionPath),
		SocketPath:     r.str(KeySocketPath),
		Includes:       r.list(KeyIncludes),
		DeployedIDFile: r.str(KeyDeployedIDFile),
	}
	if r.err != nil {
		return DeploySettings{}, r.err
	}
	return s, nil
}

// Pubpublica returns the PUBPUBLICA section. Every key is required.
func (d *Document) Pubpublica() (PubpublicaSettings, error) {
	r := &sectionReader{doc: d, section: SectionPubpublica}
	s := PubpublicaSettings{
		ConfigFile:       r.str(KeyPubpublicaConfigFile),
		PublicationsPath: r.str(KeyPublicationsPath),
	}
	if r.err != nil {
		return PubpublicaSettings{}, r.err
	}
	return s, nil
}

// Flask returns the FLASK section. Every key is required.
func (d *Document) Flask() (FlaskSettings, error) {
	r := &sectionReader{doc: d, section: SectionFlask}
	s := FlaskSettings{
		ConfigFile:    r.str(KeyFlaskConfigFile),
		SecretKeyPath: r.str(KeyFlaskSecretKeyPath),
	}
	if r.err != nil {
		return FlaskSettings{}, r.err
	}
	return s, nil
}

// Redis returns the REDIS section. Every key is required.
func (d *Document) Redis() (RedisSettings, error) {
	r := &sectionReader{doc: d, section: SectionRedis}
	s := RedisSettings{
		ConfigFile:   r.str(KeyRedisConfigFile),
		Host:         r.str(KeyRedisHost),
		Port:         r.int(KeyRedisPort),
		PasswordPath: r.str(KeyRedisPasswordPath),
	}
	if r.err != nil {
		return RedisSettings{}, r.err
	}
	return s, nil
}

func (r *sectionReader) str(key Key) string {
	if r.err != nil {
		return ""
	}
	v, err := r.doc.String(r.section, key)
	r.err = err
	return v
}

func (r *sectionReader) int(key Key) int {
	if r.err != nil {
		return 0
	}
	v, err := r.doc.Int(r.section, key)
	r.err = err
	return v
}

func (r *sectionReader) list(key Key) []string {
	if r.err != nil {
		return nil
	}
	v, err := r.doc.List(r.section, key)
	r.err = err
	return v
}
