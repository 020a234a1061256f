package sqlite

func SetSchemaVersionForTest(s *Store, version int) error {
	_, err := s.db.Exec("UPDATE schema_version SET version = ?", version)
	return err
}
