package config

// Sample is a starting configuration written by `perfdigest init`.
// Secrets are read from the environment or a .env file.
const Sample = `# perfdigest configuration
database:
  host: analytics-db.internal
  port: 5432
  database: perf
  user: tabjolt_loader
  password: ${PERFDIGEST_DB_PASSWORD}
  sslmode: require
  # auth_method: standard | aws_iam | azure | google
  # aws_region: us-east-1
  # google_instance: project:region:instance

smtp:
  sender_email: perf-reports@example.com
  smtp_username: perf-reports@example.com
  smtp_password: ${PERFDIGEST_SMTP_PASSWORD}
  smtp_server: smtp.example.com
  smtp_port: 465
  # tls_mode: implicit | starttls
  recipient_emails:
    - perf-team@example.com

s3:
  bucket_name: tabjolt-results
  folder_path: tabjolt/genral
  aws_access_key_id: ${AWS_ACCESS_KEY_ID}
  aws_secret_access_key: ${AWS_SECRET_ACCESS_KEY}
  region_name: us-east-1
  # endpoint: minio.internal:9000
  # disable_ssl: false

report:
  work_dir: /ebs/perfdigest/genral
  subject: Tabjolt Daily Run Summary
`
