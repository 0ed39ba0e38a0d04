package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- CHUNK_VECTOR TABLE (vector index over indexed document chunks)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS chunk_vector SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS namespace ON chunk_vector TYPE string;
    DEFINE FIELD IF NOT EXISTS category ON chunk_vector TYPE string;
    DEFINE FIELD IF NOT EXISTS source_url ON chunk_vector TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON chunk_vector TYPE string;
    DEFINE FIELD IF NOT EXISTS search_tags ON chunk_vector TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS chunk_index ON chunk_vector TYPE int;
    DEFINE FIELD IF NOT EXISTS text ON chunk_vector TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON chunk_vector TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS indexed_at ON chunk_vector TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS source_hash ON chunk_vector TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS extra ON chunk_vector TYPE option<object> FLEXIBLE;

    DEFINE INDEX IF NOT EXISTS chunk_vector_namespace ON chunk_vector FIELDS namespace;
    DEFINE INDEX IF NOT EXISTS chunk_vector_category ON chunk_vector FIELDS category;
    DEFINE INDEX IF NOT EXISTS chunk_vector_source_hash ON chunk_vector FIELDS source_hash;
    DEFINE INDEX IF NOT EXISTS chunk_vector_embedding ON chunk_vector FIELDS embedding HNSW DIMENSION 384 DIST COSINE TYPE F32;

    -- ==========================================================================
    -- SITE TABLE (administrator-configured crawl sites)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS site SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS url ON site TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON site TYPE string;
    DEFINE FIELD IF NOT EXISTS is_active ON site TYPE bool DEFAULT true;
    DEFINE FIELD IF NOT EXISTS search_types ON site TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS created ON site TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS site_url ON site FIELDS url UNIQUE;
    DEFINE INDEX IF NOT EXISTS site_is_active ON site FIELDS is_active;

    -- ==========================================================================
    -- CRAWL_JOB TABLE (persisted crawl run progress)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS crawl_job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS seed_url ON crawl_job TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON crawl_job TYPE string;
    DEFINE FIELD IF NOT EXISTS pages_visited ON crawl_job TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS pages_indexed ON crawl_job TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS chunks_written ON crawl_job TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS error ON crawl_job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS started ON crawl_job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS finished ON crawl_job TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS crawl_job_status ON crawl_job FIELDS status;
`
